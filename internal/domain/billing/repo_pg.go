package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/db"
)

type invoiceRepoPG struct {
	db db.Querier
}

func NewInvoiceRepo(q db.Querier) InvoiceRepository {
	return &invoiceRepoPG{db: q}
}

const invoiceCols = `id, public_id, invoice_number, patient_id, patient_name, status,
	total_amount, currency, issued_at, due_date, created_at, updated_at`

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.PublicID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (public_id, invoice_number, patient_id, patient_name, status,
			total_amount, currency, issued_at, due_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`,
		inv.PublicID, inv.InvoiceNumber, inv.PatientID, inv.PatientName, inv.Status,
		inv.TotalAmount, inv.Currency, inv.IssuedAt, inv.DueDate,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	return db.MapError("create invoice", err)
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError("get invoice", err)
	}
	return inv, nil
}

func (r *invoiceRepoPG) Update(ctx context.Context, inv *Invoice) error {
	err := r.db.QueryRow(ctx, `
		UPDATE invoices SET
			invoice_number=$2, patient_id=$3, patient_name=$4, status=$5,
			total_amount=$6, currency=$7, issued_at=$8, due_date=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.PatientName, inv.Status,
		inv.TotalAmount, inv.Currency, inv.IssuedAt, inv.DueDate,
	).Scan(&inv.UpdatedAt)
	return db.MapError("update invoice", err)
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id int64) error {
	err := db.MustAffect(r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id))
	return db.MapError("delete invoice", err)
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.PublicID, &inv.InvoiceNumber, &inv.PatientID, &inv.PatientName, &inv.Status,
		&inv.TotalAmount, &inv.Currency, &inv.IssuedAt, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
