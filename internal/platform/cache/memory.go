package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// DefaultMemoryCapacity is the entry limit when none is configured.
const DefaultMemoryCapacity = 1000

// Entry is a cached result set. NextCursor is only meaningful for pages.
type Entry struct {
	Records    []records.Record
	NextCursor any
	InsertedAt time.Time
}

// MemoryCache is the process-local tier. It is bounded and evicts the oldest
// written entry on overflow. Reads never reorder entries.
type MemoryCache struct {
	entries *lru.Cache[string, Entry]
}

// NewMemoryCache creates a MemoryCache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &MemoryCache{entries: entries}
}

// Get returns the entry for key if it was written less than ttl ago. A
// non-positive ttl disables the age check.
func (m *MemoryCache) Get(key string, ttl time.Duration) (Entry, bool) {
	e, ok := m.entries.Peek(key)
	if !ok {
		return Entry{}, false
	}
	if ttl > 0 && time.Since(e.InsertedAt) > ttl {
		return Entry{}, false
	}
	return e, true
}

// Set stores e under key, stamping InsertedAt when unset. Rewriting a key
// makes it the newest entry.
func (m *MemoryCache) Set(key string, e Entry) {
	if e.InsertedAt.IsZero() {
		e.InsertedAt = time.Now()
	}
	if m.entries.Contains(key) {
		m.entries.Remove(key)
	}
	m.entries.Add(key, e)
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// Purge drops every entry.
func (m *MemoryCache) Purge() {
	m.entries.Purge()
}
