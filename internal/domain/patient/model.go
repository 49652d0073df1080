package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

// Collection is the patients table and cache domain.
const Collection = "patients"

const dateLayout = "2006-01-02"

// Patient maps to the patients table.
type Patient struct {
	ID          int64      `db:"id" json:"id"`
	PublicID    uuid.UUID  `db:"public_id" json:"public_id"`
	MRN         string     `db:"mrn" json:"mrn"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	FullName    string     `db:"full_name" json:"full_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Input is the body of create and update requests.
type Input struct {
	MRN         string  `json:"mrn" validate:"notblank,max=32"`
	FirstName   string  `json:"first_name" validate:"notblank,max=100"`
	LastName    string  `json:"last_name" validate:"notblank,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func (in Input) apply(p *Patient) error {
	p.MRN = strings.TrimSpace(in.MRN)
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	if p.MRN == "" || p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: mrn, first_name and last_name are required", records.ErrInvalidInput)
	}
	p.FullName = p.FirstName + " " + p.LastName
	p.Email = in.Email
	p.Phone = in.Phone
	p.Gender = in.Gender
	p.DateOfBirth = nil
	if in.DateOfBirth != nil && *in.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, *in.DateOfBirth)
		if err != nil {
			return fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", records.ErrInvalidInput)
		}
		p.DateOfBirth = &dob
	}
	return nil
}

// Filter narrows a patient listing.
type Filter struct {
	Gender   string
	BornFrom *time.Time
	BornTo   *time.Time
}

func (f Filter) filters() records.Filters {
	out := records.Filters{}
	if f.Gender != "" {
		out["gender"] = records.Eq(f.Gender)
	}
	if f.BornFrom != nil || f.BornTo != nil {
		out["date_of_birth"] = records.Between(timeOrNil(f.BornFrom), timeOrNil(f.BornTo))
	}
	return out
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// SearchConfig ranks patients by identifiers first, then by name.
var SearchConfig = search.Config{
	Collection:       Collection,
	ExactFields:      []string{"mrn", "email", "phone"},
	PrefixFields:     []string{"full_name", "last_name"},
	SimilarityFields: []string{"full_name"},
}

func (p *Patient) record() records.Record {
	r := records.Record{
		"id":         p.ID,
		"public_id":  p.PublicID.String(),
		"mrn":        p.MRN,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"full_name":  p.FullName,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	putString(r, "email", p.Email)
	putString(r, "phone", p.Phone)
	putString(r, "gender", p.Gender)
	if p.DateOfBirth != nil {
		r["date_of_birth"] = *p.DateOfBirth
	} else {
		r["date_of_birth"] = nil
	}
	return r
}

func fromRecord(r records.Record) *Patient {
	p := &Patient{
		MRN:       str(r["mrn"]),
		FirstName: str(r["first_name"]),
		LastName:  str(r["last_name"]),
		FullName:  str(r["full_name"]),
		Email:     strPtr(r["email"]),
		Phone:     strPtr(r["phone"]),
		Gender:    strPtr(r["gender"]),
	}
	p.ID, _ = r["id"].(int64)
	p.PublicID, _ = uuid.Parse(str(r["public_id"]))
	if dob, ok := r["date_of_birth"].(time.Time); ok {
		p.DateOfBirth = &dob
	}
	p.CreatedAt, _ = r["created_at"].(time.Time)
	p.UpdatedAt, _ = r["updated_at"].(time.Time)
	return p
}

func putString(r records.Record, key string, v *string) {
	if v == nil {
		r[key] = nil
		return
	}
	r[key] = *v
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
