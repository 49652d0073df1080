package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

func newTestService() (*Service, *records.MemoryStore, *cache.Tiers) {
	store := records.NewMemoryStore()
	client := cache.NewClient(cache.NewLocalStore(), cache.DefaultClientConfig(), zerolog.Nop())
	tiers := cache.NewTiers(client, 100, zerolog.Nop())
	pages := paging.New(store, tiers, paging.Options{}, zerolog.Nop())
	searcher := search.NewService(store, tiers, search.Options{FastTimeout: time.Second}, zerolog.Nop())
	return NewService(NewMemoryRepo(store), pages, searcher, tiers.Versions), store, tiers
}

func ptr(s string) *string { return &s }

func input(mrn, first, last string) Input {
	return Input{MRN: mrn, FirstName: first, LastName: last}
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := input("MRN-001", " Ada ", "Lovelace")
	in.DateOfBirth = ptr("1815-12-10")
	p, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected patient %+v", p)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MRN != "MRN-001" || got.DateOfBirth == nil || got.DateOfBirth.Year() != 1815 {
		t.Errorf("unexpected patient %+v", got)
	}
}

func TestService_WritesBumpVersion(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, input("MRN-001", "Ada", "Lovelace"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, p.ID, input("MRN-001", "Ada", "King")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := tiers.Versions.Version(ctx, Collection); got != 4 {
		t.Errorf("expected version 4 after three writes, got %d", got)
	}
}

func TestService_FailedWritesKeepVersion(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, input("MRN-001", "Ada", "Lovelace")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, input("MRN-001", "Grace", "Hopper")); !errors.Is(err, records.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Update(ctx, 99, input("MRN-099", "No", "Body")); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 99); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got := tiers.Versions.Version(ctx, Collection); got != 2 {
		t.Errorf("expected only the successful create to bump, got version %d", got)
	}
}

func TestService_ListReflectsWrites(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()

	page, err := svc.List(ctx, 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	tiers.Writer.Wait()
	if len(page.Data) != 0 {
		t.Fatalf("expected empty page, got %v", page.Data)
	}

	if _, err := svc.Create(ctx, input("MRN-001", "Ada", "Lovelace")); err != nil {
		t.Fatalf("create: %v", err)
	}
	page, err = svc.List(ctx, 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 1 {
		t.Errorf("expected the new patient after the version bump, got %v", page.Data)
	}
}

func TestService_ListPagesForward(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()
	for i, mrn := range []string{"A1", "A2", "A3", "A4", "A5"} {
		if _, err := svc.Create(ctx, input(mrn, "P", string(rune('a'+i)))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var seen []interface{}
	var cursor interface{}
	for i := 0; i < 3; i++ {
		page, err := svc.List(ctx, 2, cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, r := range page.Data {
			seen = append(seen, r["mrn"])
		}
		cursor = page.NextCursor
		if cursor == nil {
			break
		}
	}
	tiers.Writer.Wait()

	if len(seen) != 5 || seen[0] != "A1" || seen[4] != "A5" {
		t.Errorf("expected A1..A5 in order, got %v", seen)
	}
	if cursor != nil {
		t.Errorf("expected exhausted cursor, got %v", cursor)
	}
}

func TestService_ListFiltered(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()

	a := input("MRN-1", "Ada", "Lovelace")
	a.Gender, a.DateOfBirth = ptr("female"), ptr("1815-12-10")
	g := input("MRN-2", "Grace", "Hopper")
	g.Gender, g.DateOfBirth = ptr("female"), ptr("1906-12-09")
	c := input("MRN-3", "Charles", "Babbage")
	c.Gender, c.DateOfBirth = ptr("male"), ptr("1791-12-26")
	for _, in := range []Input{a, g, c} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	from := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	page, err := svc.ListFiltered(ctx, 10, nil, Filter{Gender: "female", BornFrom: &from})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	tiers.Writer.Wait()
	if len(page.Data) != 2 || page.Data[0]["mrn"] != "MRN-1" || page.Data[1]["mrn"] != "MRN-2" {
		t.Errorf("unexpected filtered page %v", page.Data)
	}
}

func TestService_SearchRanksIdentifierFirst(t *testing.T) {
	svc, _, tiers := newTestService()
	ctx := context.Background()
	for _, in := range []Input{
		input("MRN-100", "John", "Smith"),
		input("MRN-200", "Johnny", "Smithers"),
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := svc.Search(ctx, "mrn-200")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	tiers.Writer.Wait()
	if len(rows) != 1 || rows[0]["full_name"] != "Johnny Smithers" {
		t.Fatalf("expected exact MRN match, got %v", rows)
	}

	rows, err = svc.Search(ctx, "john")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 2 || rows[0]["full_name"] != "John Smith" {
		t.Errorf("expected both prefix matches with the closer name first, got %v", rows)
	}
}

func TestInput_ApplyRejectsBadDate(t *testing.T) {
	in := input("MRN-1", "Ada", "Lovelace")
	in.DateOfBirth = ptr("10/12/1815")
	var p Patient
	if err := in.apply(&p); !errors.Is(err, records.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
