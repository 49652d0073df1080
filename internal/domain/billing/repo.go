package billing

import "context"

// InvoiceRepository persists invoices. Missing rows surface as
// records.ErrNotFound and duplicate invoice numbers as records.ErrConflict.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id int64) error
}
