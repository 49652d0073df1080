// Package records defines the opaque record store the list and search engine
// reads from. A Record is a column-name to value map; stores are addressed by
// collection name and never interpret record contents.
package records

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidIdentifier is returned when a collection or field name is not a
	// plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotFound is returned by single-record lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write collides with a unique value.
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrInvalidInput marks request values that cannot be turned into a
	// query or a record.
	ErrInvalidInput = errors.New("invalid input")
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Record is a single row of a collection.
type Record map[string]any

// Op is a comparison operator usable in a Condition.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Condition restricts a query to rows where Field Op Value holds.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Query describes a findMany call against a collection.
type Query struct {
	Collection string
	Where      []Condition
	OrderBy    string
	Descending bool
	Take       int
	Select     []string
}

// RankedQuery describes a tiered exact/prefix/similarity search. Term must
// already be normalized (trimmed, lowercased).
type RankedQuery struct {
	Collection string
	Term       string
	Exact      []string
	Prefix     []string
	Similar    []string
	SortField  string
	Limit      int
}

// Store is the record store consumed by the paginator and search service.
type Store interface {
	FindMany(ctx context.Context, q Query) ([]Record, error)
	FindRanked(ctx context.Context, q RankedQuery) ([]Record, error)
}

// ValidIdentifier reports whether name is safe to interpolate as a table or
// column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// CheckIdentifiers returns ErrInvalidIdentifier for the first bad name.
func CheckIdentifiers(names ...string) error {
	for _, n := range names {
		if !ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
	}
	return nil
}

// Validate checks every identifier referenced by the query.
func (q Query) Validate() error {
	if err := CheckIdentifiers(q.Collection); err != nil {
		return err
	}
	if q.OrderBy != "" {
		if err := CheckIdentifiers(q.OrderBy); err != nil {
			return err
		}
	}
	if err := CheckIdentifiers(q.Select...); err != nil {
		return err
	}
	for _, c := range q.Where {
		if err := CheckIdentifiers(c.Field); err != nil {
			return err
		}
		switch c.Op {
		case OpEq, OpGt, OpGte, OpLte:
		default:
			return fmt.Errorf("unsupported operator %q on %s", c.Op, c.Field)
		}
	}
	return nil
}

// Validate checks every identifier referenced by the ranked query.
func (q RankedQuery) Validate() error {
	if err := CheckIdentifiers(q.Collection); err != nil {
		return err
	}
	if q.SortField != "" {
		if err := CheckIdentifiers(q.SortField); err != nil {
			return err
		}
	}
	if err := CheckIdentifiers(q.Exact...); err != nil {
		return err
	}
	if err := CheckIdentifiers(q.Prefix...); err != nil {
		return err
	}
	return CheckIdentifiers(q.Similar...)
}

// Empty reports whether no tier has any field configured.
func (q RankedQuery) Empty() bool {
	return len(q.Exact) == 0 && len(q.Prefix) == 0 && len(q.Similar) == 0
}
