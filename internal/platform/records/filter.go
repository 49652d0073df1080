package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Range bounds a field inclusively. A nil bound is open-ended.
type Range struct {
	Gte any `json:"gte,omitempty"`
	Lte any `json:"lte,omitempty"`
}

// Filter is either an equality match or a Range.
type Filter struct {
	Equals any
	Range  *Range
}

// Filters maps field name to Filter.
type Filters map[string]Filter

// Eq builds an equality filter.
func Eq(v any) Filter { return Filter{Equals: v} }

// Between builds a range filter; pass nil for an open bound.
func Between(gte, lte any) Filter {
	return Filter{Range: &Range{Gte: gte, Lte: lte}}
}

// Fields returns the filter field names in lexicographic order.
func (f Filters) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Conditions converts the filters to store conditions, in field order.
// Ranges with both bounds absent add nothing.
func (f Filters) Conditions() []Condition {
	var conds []Condition
	for _, name := range f.Fields() {
		flt := f[name]
		if flt.Range == nil {
			conds = append(conds, Condition{Field: name, Op: OpEq, Value: flt.Equals})
			continue
		}
		if flt.Range.Gte != nil {
			conds = append(conds, Condition{Field: name, Op: OpGte, Value: flt.Range.Gte})
		}
		if flt.Range.Lte != nil {
			conds = append(conds, Condition{Field: name, Op: OpLte, Value: flt.Range.Lte})
		}
	}
	return conds
}

// Canonical serializes the filters as field:value pairs sorted by field name
// and joined by "|". Equal filter sets always produce the same string
// regardless of map construction order.
func (f Filters) Canonical() string {
	parts := make([]string, 0, len(f))
	for _, name := range f.Fields() {
		parts = append(parts, name+":"+f[name].canonicalValue())
	}
	return strings.Join(parts, "|")
}

func (flt Filter) canonicalValue() string {
	if flt.Range != nil {
		b, err := json.Marshal(flt.Range)
		if err != nil {
			return fmt.Sprintf("%v", *flt.Range)
		}
		return string(b)
	}
	return FormatValue(flt.Equals)
}

// FormatValue renders a scalar for use inside a cache key. Composite values
// are JSON-encoded.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
