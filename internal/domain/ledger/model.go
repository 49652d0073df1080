package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

// Collection is the ledger_entries table and cache domain.
const Collection = "ledger_entries"

// Entry types.
const (
	Debit  = "debit"
	Credit = "credit"
)

// Entry maps to the ledger_entries table.
type Entry struct {
	ID          int64     `db:"id" json:"id"`
	PublicID    uuid.UUID `db:"public_id" json:"public_id"`
	Account     string    `db:"account" json:"account"`
	EntryType   string    `db:"entry_type" json:"entry_type"`
	Amount      float64   `db:"amount" json:"amount"`
	Reference   *string   `db:"reference" json:"reference,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Input is the body of create and update requests. OccurredAt is RFC 3339
// and defaults to now.
type Input struct {
	Account     string  `json:"account" validate:"notblank,max=64"`
	EntryType   string  `json:"entry_type" validate:"required,oneof=debit credit"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Reference   *string `json:"reference" validate:"omitempty,max=64"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	OccurredAt  *string `json:"occurred_at" validate:"omitempty"`
}

func (in Input) apply(e *Entry, now time.Time) error {
	e.Account = strings.TrimSpace(in.Account)
	if e.Account == "" {
		return fmt.Errorf("%w: account is required", records.ErrInvalidInput)
	}
	if in.EntryType != Debit && in.EntryType != Credit {
		return fmt.Errorf("%w: entry_type must be debit or credit", records.ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", records.ErrInvalidInput)
	}
	e.EntryType = in.EntryType
	e.Amount = in.Amount
	e.Reference = in.Reference
	e.Description = in.Description

	e.OccurredAt = now
	if in.OccurredAt != nil && *in.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, *in.OccurredAt)
		if err != nil {
			return fmt.Errorf("%w: occurred_at must be RFC 3339", records.ErrInvalidInput)
		}
		e.OccurredAt = t.UTC()
	}
	return nil
}

// Filter narrows a ledger listing.
type Filter struct {
	Account   string
	EntryType string
	From      *time.Time
	To        *time.Time
}

func (f Filter) filters() records.Filters {
	out := records.Filters{}
	if f.Account != "" {
		out["account"] = records.Eq(f.Account)
	}
	if f.EntryType != "" {
		out["entry_type"] = records.Eq(f.EntryType)
	}
	if f.From != nil || f.To != nil {
		var gte, lte any
		if f.From != nil {
			gte = *f.From
		}
		if f.To != nil {
			lte = *f.To
		}
		out["occurred_at"] = records.Between(gte, lte)
	}
	return out
}

// SearchConfig finds entries by reference, account and description.
var SearchConfig = search.Config{
	Collection:       Collection,
	CachePrefix:      "ledger",
	ExactFields:      []string{"reference"},
	PrefixFields:     []string{"account", "reference"},
	SimilarityFields: []string{"description"},
	SortField:        "occurred_at",
	MaxResults:       25,
}

func (e *Entry) record() records.Record {
	r := records.Record{
		"id":          e.ID,
		"public_id":   e.PublicID.String(),
		"account":     e.Account,
		"entry_type":  e.EntryType,
		"amount":      e.Amount,
		"reference":   nil,
		"description": nil,
		"occurred_at": e.OccurredAt,
		"created_at":  e.CreatedAt,
	}
	if e.Reference != nil {
		r["reference"] = *e.Reference
	}
	if e.Description != nil {
		r["description"] = *e.Description
	}
	return r
}

func fromRecord(r records.Record) *Entry {
	e := &Entry{}
	e.ID, _ = r["id"].(int64)
	e.PublicID, _ = uuid.Parse(fmt.Sprint(r["public_id"]))
	e.Account, _ = r["account"].(string)
	e.EntryType, _ = r["entry_type"].(string)
	e.Amount, _ = r["amount"].(float64)
	if s, ok := r["reference"].(string); ok {
		e.Reference = &s
	}
	if s, ok := r["description"].(string); ok {
		e.Description = &s
	}
	e.OccurredAt, _ = r["occurred_at"].(time.Time)
	e.CreatedAt, _ = r["created_at"].(time.Time)
	return e
}
