package records

import (
	"context"
	"errors"
	"math"
	"testing"
)

func seedNames(s *MemoryStore) {
	s.Insert("patients", Record{"full_name": "John Smith"})
	s.Insert("patients", Record{"full_name": "Johnny Appleseed"})
	s.Insert("patients", Record{"full_name": "Jon Smithy"})
}

func TestSimilarity_MatchesPgTrgm(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"john smith", "jon smith", 8.0 / 13.0},
		{"john smith", "johnny appleseed", 4.0 / 24.0},
		{"abc", "abc", 1},
		{"", "abc", 0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMemoryStore_FindManyOrdersAndFilters(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		s.Insert("invoices", Record{"status": []string{"paid", "draft"}[i%2], "total_amount": float64(i * 100)})
	}

	rows, err := s.FindMany(context.Background(), Query{
		Collection: "invoices",
		Where: []Condition{
			{Field: "id", Op: OpGt, Value: int64(1)},
			{Field: "status", Op: OpEq, Value: "paid"},
		},
		OrderBy: "id",
		Take:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["id"] != int64(3) || rows[1]["id"] != int64(5) {
		t.Errorf("unexpected ids: %v, %v", rows[0]["id"], rows[1]["id"])
	}
	if s.Queries() != 1 {
		t.Errorf("expected 1 query, got %d", s.Queries())
	}
}

func TestMemoryStore_FindManyRange(t *testing.T) {
	s := NewMemoryStore()
	for i := 1; i <= 5; i++ {
		s.Insert("invoices", Record{"total_amount": float64(i * 100)})
	}
	f := Filters{"total_amount": Between(200, 400)}
	rows, err := s.FindMany(context.Background(), Query{Collection: "invoices", Where: f.Conditions(), OrderBy: "id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestMemoryStore_RejectsBadIdentifiers(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.FindMany(context.Background(), Query{Collection: "patients; DROP TABLE x"})
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	_, err = s.FindRanked(context.Background(), RankedQuery{Collection: "patients", Term: "jo", Exact: []string{"name)"}})
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestMemoryStore_FindRankedTiers(t *testing.T) {
	s := NewMemoryStore()
	seedNames(s)
	fields := []string{"full_name"}

	rows, err := s.FindRanked(context.Background(), RankedQuery{
		Collection: "patients", Term: "jon smith",
		Exact: fields, Prefix: fields, Similar: fields, Limit: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0]["full_name"] != "Jon Smithy" || rows[0]["search_priority"] != 2 {
		t.Errorf("expected prefix match first, got %v", rows[0])
	}
	if rows[1]["full_name"] != "John Smith" || rows[1]["search_priority"] != 3 {
		t.Errorf("expected similarity match second, got %v", rows[1])
	}
}

func TestMemoryStore_FindRankedEmptyConfig(t *testing.T) {
	s := NewMemoryStore()
	seedNames(s)
	rows, err := s.FindRanked(context.Background(), RankedQuery{Collection: "patients", Term: "john"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 || s.Queries() != 0 {
		t.Errorf("expected no rows and no query, got %d rows, %d queries", len(rows), s.Queries())
	}
}

func TestMemoryStore_UpdateDelete(t *testing.T) {
	s := NewMemoryStore()
	rec := s.Insert("ledger_entries", Record{"account": "cash"})
	id := rec["id"].(int64)

	if err := s.Update("ledger_entries", id, Record{"account": "bank"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get("ledger_entries", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["account"] != "bank" {
		t.Errorf("expected bank, got %v", got["account"])
	}
	if err := s.Delete("ledger_entries", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("ledger_entries", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilters_CanonicalIsOrderIndependent(t *testing.T) {
	a := Filters{}
	a["status"] = Eq("paid")
	a["patient_id"] = Eq(int64(7))
	a["total_amount"] = Between(100, nil)

	b := Filters{}
	b["total_amount"] = Between(100, nil)
	b["patient_id"] = Eq(int64(7))
	b["status"] = Eq("paid")

	want := `patient_id:7|status:paid|total_amount:{"gte":100}`
	if a.Canonical() != want {
		t.Errorf("expected %s, got %s", want, a.Canonical())
	}
	if a.Canonical() != b.Canonical() {
		t.Errorf("canonical forms differ: %s vs %s", a.Canonical(), b.Canonical())
	}
}
