package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

type repoMemory struct {
	store *records.MemoryStore
}

// NewMemoryRepo keeps patients in a records.MemoryStore, the same store the
// list and search endpoints read in sandbox mode.
func NewMemoryRepo(store *records.MemoryStore) Repository {
	return &repoMemory{store: store}
}

func (r *repoMemory) Create(ctx context.Context, p *Patient) error {
	if err := r.checkMRN(ctx, p.MRN, 0); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.PublicID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now

	rec := p.record()
	delete(rec, "id")
	stored := r.store.Insert(Collection, rec)
	p.ID, _ = stored["id"].(int64)
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id int64) (*Patient, error) {
	rec, err := r.store.Get(Collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

func (r *repoMemory) Update(ctx context.Context, p *Patient) error {
	if err := r.checkMRN(ctx, p.MRN, p.ID); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	rec := p.record()
	delete(rec, "public_id")
	delete(rec, "created_at")
	return r.store.Update(Collection, p.ID, rec)
}

func (r *repoMemory) Delete(_ context.Context, id int64) error {
	return r.store.Delete(Collection, id)
}

func (r *repoMemory) checkMRN(ctx context.Context, mrn string, self int64) error {
	rows, err := r.store.FindMany(ctx, records.Query{
		Collection: Collection,
		Where:      []records.Condition{{Field: "mrn", Op: records.OpEq, Value: mrn}},
		Select:     []string{"id"},
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		if id, _ := row["id"].(int64); id != self {
			return fmt.Errorf("%w: mrn %s", records.ErrConflict, mrn)
		}
	}
	return nil
}
