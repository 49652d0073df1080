package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/db"
)

type repoPG struct {
	db db.Querier
}

func NewRepo(q db.Querier) Repository {
	return &repoPG{db: q}
}

const entryCols = `id, public_id, account, entry_type, amount, reference, description, occurred_at, created_at`

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.PublicID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO ledger_entries (public_id, account, entry_type, amount, reference, description, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		e.PublicID, e.Account, e.EntryType, e.Amount, e.Reference, e.Description, e.OccurredAt,
	).Scan(&e.ID, &e.CreatedAt)
	return db.MapError("create ledger entry", err)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := r.db.QueryRow(ctx, `SELECT `+entryCols+` FROM ledger_entries WHERE id = $1`, id).Scan(
		&e.ID, &e.PublicID, &e.Account, &e.EntryType, &e.Amount, &e.Reference, &e.Description, &e.OccurredAt, &e.CreatedAt)
	if err != nil {
		return nil, db.MapError("get ledger entry", err)
	}
	return &e, nil
}

func (r *repoPG) Update(ctx context.Context, e *Entry) error {
	err := db.MustAffect(r.db.Exec(ctx, `
		UPDATE ledger_entries SET
			account=$2, entry_type=$3, amount=$4, reference=$5, description=$6, occurred_at=$7
		WHERE id = $1`,
		e.ID, e.Account, e.EntryType, e.Amount, e.Reference, e.Description, e.OccurredAt,
	))
	return db.MapError("update ledger entry", err)
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	err := db.MustAffect(r.db.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id))
	return db.MapError("delete ledger entry", err)
}
