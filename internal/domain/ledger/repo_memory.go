package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

type repoMemory struct {
	store *records.MemoryStore
}

// NewMemoryRepo keeps entries in the sandbox records.MemoryStore.
func NewMemoryRepo(store *records.MemoryStore) Repository {
	return &repoMemory{store: store}
}

func (r *repoMemory) Create(_ context.Context, e *Entry) error {
	e.PublicID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	rec := e.record()
	delete(rec, "id")
	stored := r.store.Insert(Collection, rec)
	e.ID, _ = stored["id"].(int64)
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id int64) (*Entry, error) {
	rec, err := r.store.Get(Collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

func (r *repoMemory) Update(_ context.Context, e *Entry) error {
	rec := e.record()
	delete(rec, "public_id")
	delete(rec, "created_at")
	return r.store.Update(Collection, e.ID, rec)
}

func (r *repoMemory) Delete(_ context.Context, id int64) error {
	return r.store.Delete(Collection, id)
}
