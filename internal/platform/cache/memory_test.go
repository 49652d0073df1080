package cache

import (
	"strconv"
	"testing"
	"time"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

func TestMemoryCache_GetWithinTTL(t *testing.T) {
	m := NewMemoryCache(10)
	m.Set("k", Entry{Records: []records.Record{{"id": int64(1)}}, NextCursor: int64(1)})

	e, ok := m.Get("k", time.Minute)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(e.Records) != 1 || e.NextCursor != int64(1) {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.InsertedAt.IsZero() {
		t.Error("expected InsertedAt to be stamped")
	}
}

func TestMemoryCache_ExpiredIsMiss(t *testing.T) {
	m := NewMemoryCache(10)
	m.Set("k", Entry{InsertedAt: time.Now().Add(-time.Minute)})

	if _, ok := m.Get("k", 30*time.Second); ok {
		t.Error("expected miss for entry older than ttl")
	}
	if _, ok := m.Get("k", 0); !ok {
		t.Error("zero ttl should disable the age check")
	}
}

func TestMemoryCache_EvictsOldestWrite(t *testing.T) {
	m := NewMemoryCache(2)
	m.Set("a", Entry{})
	m.Set("b", Entry{})

	// Reads do not promote.
	m.Get("a", 0)
	m.Set("c", Entry{})

	if _, ok := m.Get("a", 0); ok {
		t.Error("expected a to be evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := m.Get(k, 0); !ok {
			t.Errorf("expected %s present", k)
		}
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestMemoryCache_RewriteRefreshesPosition(t *testing.T) {
	m := NewMemoryCache(2)
	m.Set("a", Entry{})
	m.Set("b", Entry{})
	m.Set("a", Entry{NextCursor: "x"})
	m.Set("c", Entry{})

	if _, ok := m.Get("b", 0); ok {
		t.Error("expected b to be evicted")
	}
	e, ok := m.Get("a", 0)
	if !ok || e.NextCursor != "x" {
		t.Errorf("expected rewritten a, got %+v %v", e, ok)
	}
}

func TestMemoryCache_DefaultCapacity(t *testing.T) {
	m := NewMemoryCache(0)
	for i := 0; i < DefaultMemoryCapacity+5; i++ {
		m.Set(strconv.Itoa(i), Entry{})
	}
	if m.Len() != DefaultMemoryCapacity {
		t.Errorf("expected %d entries, got %d", DefaultMemoryCapacity, m.Len())
	}
	m.Purge()
	if m.Len() != 0 {
		t.Errorf("expected empty cache after purge, got %d", m.Len())
	}
}
