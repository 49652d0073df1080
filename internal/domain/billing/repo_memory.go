package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

type invoiceRepoMemory struct {
	store *records.MemoryStore
}

// NewMemoryInvoiceRepo keeps invoices in the shared sandbox store.
func NewMemoryInvoiceRepo(store *records.MemoryStore) InvoiceRepository {
	return &invoiceRepoMemory{store: store}
}

func (r *invoiceRepoMemory) Create(ctx context.Context, inv *Invoice) error {
	if err := r.checkNumber(ctx, inv.InvoiceNumber, 0); err != nil {
		return err
	}
	now := time.Now().UTC()
	inv.PublicID = uuid.New()
	inv.CreatedAt, inv.UpdatedAt = now, now

	rec := inv.record()
	delete(rec, "id")
	inv.ID, _ = r.store.Insert(Collection, rec)["id"].(int64)
	return nil
}

func (r *invoiceRepoMemory) GetByID(_ context.Context, id int64) (*Invoice, error) {
	rec, err := r.store.Get(Collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

func (r *invoiceRepoMemory) Update(ctx context.Context, inv *Invoice) error {
	if err := r.checkNumber(ctx, inv.InvoiceNumber, inv.ID); err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()
	rec := inv.record()
	delete(rec, "public_id")
	delete(rec, "created_at")
	return r.store.Update(Collection, inv.ID, rec)
}

func (r *invoiceRepoMemory) Delete(_ context.Context, id int64) error {
	return r.store.Delete(Collection, id)
}

func (r *invoiceRepoMemory) checkNumber(ctx context.Context, number string, self int64) error {
	rows, err := r.store.FindMany(ctx, records.Query{
		Collection: Collection,
		Where:      []records.Condition{{Field: "invoice_number", Op: records.OpEq, Value: number}},
		Select:     []string{"id"},
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		if id, _ := row["id"].(int64); id != self {
			return fmt.Errorf("%w: invoice_number %s", records.ErrConflict, number)
		}
	}
	return nil
}
