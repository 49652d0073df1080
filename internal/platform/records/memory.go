package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore is an in-process Store. It backs the sandbox mode and tests and
// follows the same ordering and matching rules as the PostgreSQL store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
	nextID      map[string]int64
	queries     atomic.Int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]Record),
		nextID:      make(map[string]int64),
	}
}

// Queries returns how many FindMany/FindRanked calls have been served.
func (s *MemoryStore) Queries() int64 { return s.queries.Load() }

// Insert adds rec to the collection, assigning an int64 "id" when absent,
// and returns the stored copy.
func (s *MemoryStore) Insert(collection string, rec Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyRecord(rec)
	if id, ok := toInt64(stored["id"]); ok {
		if id > s.nextID[collection] {
			s.nextID[collection] = id
		}
		stored["id"] = id
	} else {
		s.nextID[collection]++
		stored["id"] = s.nextID[collection]
	}
	if _, ok := stored["created_at"]; !ok {
		stored["created_at"] = time.Now().UTC()
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return copyRecord(stored)
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(collection string, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.collections[collection] {
		if rid, _ := toInt64(r["id"]); rid == id {
			return copyRecord(r), nil
		}
	}
	return nil, ErrNotFound
}

// Update merges fields into the record with the given id.
func (s *MemoryStore) Update(collection string, id int64, fields Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.collections[collection] {
		if rid, _ := toInt64(r["id"]); rid == id {
			for k, v := range fields {
				if k == "id" {
					continue
				}
				r[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes the record with the given id.
func (s *MemoryStore) Delete(collection string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.collections[collection]
	for i, r := range rows {
		if rid, _ := toInt64(r["id"]); rid == id {
			s.collections[collection] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) FindMany(_ context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.queries.Add(1)

	s.mu.RLock()
	var out []Record
	for _, r := range s.collections[q.Collection] {
		if matchesAll(r, q.Where) {
			out = append(out, project(r, q.Select))
		}
	}
	s.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareNullsLast(out[i][q.OrderBy], out[j][q.OrderBy], q.Descending)
			return c < 0
		})
	}
	if q.Take > 0 && len(out) > q.Take {
		out = out[:q.Take]
	}
	return out, nil
}

func (s *MemoryStore) FindRanked(_ context.Context, q RankedQuery) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Empty() {
		return nil, nil
	}
	s.queries.Add(1)

	type ranked struct {
		rec      Record
		priority int
		score    float64
	}

	s.mu.RLock()
	var hits []ranked
	for _, r := range s.collections[q.Collection] {
		priority := 0
		switch {
		case anyField(r, q.Exact, func(v string) bool { return v == q.Term }):
			priority = 1
		case anyField(r, q.Prefix, func(v string) bool { return strings.HasPrefix(v, q.Term) }):
			priority = 2
		case anyField(r, q.Similar, func(v string) bool { return Similarity(v, q.Term) >= SimilarityThreshold }):
			priority = 3
		default:
			continue
		}
		score := 0.0
		for _, f := range q.Similar {
			if v, ok := lowerString(r[f]); ok {
				if sim := Similarity(v, q.Term); sim > score {
					score = sim
				}
			}
		}
		rec := copyRecord(r)
		rec["search_priority"] = priority
		rec["search_score"] = score
		hits = append(hits, ranked{rec: rec, priority: priority, score: score})
	}
	s.mu.RUnlock()

	sortField := q.SortField
	if sortField == "" {
		sortField = "created_at"
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].priority != hits[j].priority {
			return hits[i].priority < hits[j].priority
		}
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return compareNullsLast(hits[i].rec[sortField], hits[j].rec[sortField], true) < 0
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

func anyField(r Record, fields []string, match func(string) bool) bool {
	for _, f := range fields {
		if v, ok := lowerString(r[f]); ok && match(v) {
			return true
		}
	}
	return false
}

func lowerString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.ToLower(val), true
	default:
		return strings.ToLower(fmt.Sprint(val)), true
	}
}

func matchesAll(r Record, conds []Condition) bool {
	for _, c := range conds {
		cmp, ok := compareValues(r[c.Field], c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		}
	}
	return true
}

// compareNullsLast orders nil after every value in both directions, matching
// "NULLS LAST" in the SQL store.
func compareNullsLast(a, b any, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, ok := compareValues(a, b)
	if !ok {
		c = strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	if desc {
		return -c
	}
	return c
}

// compareValues compares numbers, strings and times. ok is false for nil or
// mismatched kinds.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb), true
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			if ba == bb {
				return 0, true
			}
			if !ba {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return copyRecord(r)
	}
	out := make(Record, len(fields))
	for _, f := range fields {
		out[f] = r[f]
	}
	return out
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
