package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

// Collection is the invoices table and cache domain.
const Collection = "invoices"

const dateLayout = "2006-01-02"

// Invoice statuses.
const (
	StatusDraft  = "draft"
	StatusIssued = "issued"
	StatusPaid   = "paid"
	StatusVoid   = "void"
)

// Invoice maps to the invoices table.
type Invoice struct {
	ID            int64      `db:"id" json:"id"`
	PublicID      uuid.UUID  `db:"public_id" json:"public_id"`
	InvoiceNumber string     `db:"invoice_number" json:"invoice_number"`
	PatientID     int64      `db:"patient_id" json:"patient_id"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	Status        string     `db:"status" json:"status"`
	TotalAmount   float64    `db:"total_amount" json:"total_amount"`
	Currency      string     `db:"currency" json:"currency"`
	IssuedAt      *time.Time `db:"issued_at" json:"issued_at,omitempty"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Input is the body of create and update requests.
type Input struct {
	InvoiceNumber string  `json:"invoice_number" validate:"notblank,max=40"`
	PatientID     int64   `json:"patient_id" validate:"gt=0"`
	PatientName   string  `json:"patient_name" validate:"notblank,max=200"`
	Status        string  `json:"status" validate:"omitempty,oneof=draft issued paid void"`
	TotalAmount   float64 `json:"total_amount" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3,alpha"`
	IssuedAt      *string `json:"issued_at" validate:"omitempty,datetime=2006-01-02"`
	DueDate       *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (in Input) apply(inv *Invoice) error {
	inv.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	inv.PatientName = strings.TrimSpace(in.PatientName)
	if inv.InvoiceNumber == "" || inv.PatientName == "" || in.PatientID <= 0 {
		return fmt.Errorf("%w: invoice_number, patient_id and patient_name are required", records.ErrInvalidInput)
	}
	if in.TotalAmount < 0 {
		return fmt.Errorf("%w: total_amount must not be negative", records.ErrInvalidInput)
	}
	inv.PatientID = in.PatientID
	inv.TotalAmount = in.TotalAmount

	inv.Status = in.Status
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	inv.Currency = strings.ToUpper(in.Currency)
	if inv.Currency == "" {
		inv.Currency = "INR"
	}

	var err error
	if inv.IssuedAt, err = parseDate("issued_at", in.IssuedAt); err != nil {
		return err
	}
	if inv.DueDate, err = parseDate("due_date", in.DueDate); err != nil {
		return err
	}
	return nil
}

func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", records.ErrInvalidInput, field)
	}
	return &t, nil
}

// Filter narrows an invoice listing. Zero values are ignored.
type Filter struct {
	Status     string
	PatientID  int64
	MinAmount  *float64
	MaxAmount  *float64
	IssuedFrom *time.Time
	IssuedTo   *time.Time
}

func (f Filter) filters() records.Filters {
	out := records.Filters{}
	if f.Status != "" {
		out["status"] = records.Eq(f.Status)
	}
	if f.PatientID > 0 {
		out["patient_id"] = records.Eq(f.PatientID)
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		out["total_amount"] = records.Between(floatOrNil(f.MinAmount), floatOrNil(f.MaxAmount))
	}
	if f.IssuedFrom != nil || f.IssuedTo != nil {
		out["issued_at"] = records.Between(timeOrNil(f.IssuedFrom), timeOrNil(f.IssuedTo))
	}
	return out
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// SearchConfig finds invoices by number, then by patient name.
var SearchConfig = search.Config{
	Collection:       Collection,
	ExactFields:      []string{"invoice_number"},
	PrefixFields:     []string{"invoice_number"},
	SimilarityFields: []string{"patient_name"},
	SortField:        "issued_at",
}

func (inv *Invoice) record() records.Record {
	return records.Record{
		"id":             inv.ID,
		"public_id":      inv.PublicID.String(),
		"invoice_number": inv.InvoiceNumber,
		"patient_id":     inv.PatientID,
		"patient_name":   inv.PatientName,
		"status":         inv.Status,
		"total_amount":   inv.TotalAmount,
		"currency":       inv.Currency,
		"issued_at":      timeOrNil(inv.IssuedAt),
		"due_date":       timeOrNil(inv.DueDate),
		"created_at":     inv.CreatedAt,
		"updated_at":     inv.UpdatedAt,
	}
}

func fromRecord(r records.Record) *Invoice {
	inv := &Invoice{}
	inv.ID, _ = r["id"].(int64)
	inv.PublicID, _ = uuid.Parse(asString(r["public_id"]))
	inv.InvoiceNumber = asString(r["invoice_number"])
	inv.PatientID, _ = r["patient_id"].(int64)
	inv.PatientName = asString(r["patient_name"])
	inv.Status = asString(r["status"])
	inv.TotalAmount, _ = r["total_amount"].(float64)
	inv.Currency = asString(r["currency"])
	if t, ok := r["issued_at"].(time.Time); ok {
		inv.IssuedAt = &t
	}
	if t, ok := r["due_date"].(time.Time); ok {
		inv.DueDate = &t
	}
	inv.CreatedAt, _ = r["created_at"].(time.Time)
	inv.UpdatedAt, _ = r["updated_at"].(time.Time)
	return inv
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
