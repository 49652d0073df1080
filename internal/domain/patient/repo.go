package patient

import "context"

// Repository persists patients. Missing rows surface as records.ErrNotFound
// and duplicate MRNs as records.ErrConflict.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
}
