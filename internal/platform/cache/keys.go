package cache

import (
	"strconv"
	"strings"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// Abbreviate shortens a collection name for use in keys: every "_" or "-"
// separated segment is cut to three characters and the segments are joined.
// "ledger_entries" becomes "ledent".
func Abbreviate(collection string) string {
	segments := strings.FieldsFunc(collection, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, s := range segments {
		r := []rune(s)
		if len(r) > 3 {
			r = r[:3]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

// PageKey builds the key of an unfiltered page.
func PageKey(collection string, version int, cursor any, limit int) string {
	return "p:" + Abbreviate(collection) +
		":v:" + strconv.Itoa(version) +
		":c:" + cursorToken(cursor) +
		":l:" + strconv.Itoa(limit)
}

// FilteredPageKey builds the key of a filtered page. Filters are rendered in
// field order so equal filter sets share a key.
func FilteredPageKey(collection string, version int, cursor any, limit int, filters records.Filters) string {
	return "pf:" + Abbreviate(collection) +
		":v:" + strconv.Itoa(version) +
		":c:" + cursorToken(cursor) +
		":l:" + strconv.Itoa(limit) +
		":f:" + filters.Canonical()
}

// SearchKey builds the key of a search result set. term must be normalized.
func SearchKey(prefix string, version int, term string) string {
	return prefix + ":v" + strconv.Itoa(version) + ":search:" + term
}

func cursorToken(cursor any) string {
	if s := records.FormatValue(cursor); s != "" {
		return s
	}
	return "0"
}
