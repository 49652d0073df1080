package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/db"
)

type repoPG struct {
	db db.Querier
}

func NewRepo(q db.Querier) Repository {
	return &repoPG{db: q}
}

const patientCols = `id, public_id, mrn, first_name, last_name, full_name,
	email, phone, gender, date_of_birth, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.PublicID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO patients (public_id, mrn, first_name, last_name, full_name, email, phone, gender, date_of_birth)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`,
		p.PublicID, p.MRN, p.FirstName, p.LastName, p.FullName, p.Email, p.Phone, p.Gender, p.DateOfBirth,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return db.MapError("create patient", err)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError("get patient", err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.db.QueryRow(ctx, `
		UPDATE patients SET
			mrn=$2, first_name=$3, last_name=$4, full_name=$5,
			email=$6, phone=$7, gender=$8, date_of_birth=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.FullName, p.Email, p.Phone, p.Gender, p.DateOfBirth,
	).Scan(&p.UpdatedAt)
	return db.MapError("update patient", err)
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	err := db.MustAffect(r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id))
	return db.MapError("delete patient", err)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PublicID, &p.MRN, &p.FirstName, &p.LastName, &p.FullName,
		&p.Email, &p.Phone, &p.Gender, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
