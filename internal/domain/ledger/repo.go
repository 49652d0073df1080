package ledger

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id int64) error
}
