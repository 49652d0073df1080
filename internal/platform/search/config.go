package search

import (
	"fmt"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// DefaultMaxResults caps a result set when a Config sets no limit.
const DefaultMaxResults = 50

// Config describes how one collection is searched. Configs are declared by
// the owning domain package and must never be built from request input.
type Config struct {
	Collection string
	// CachePrefix namespaces result keys. Defaults to Collection.
	CachePrefix string
	// VersionDomain selects the version counter. Defaults to Collection.
	VersionDomain    string
	ExactFields      []string
	PrefixFields     []string
	SimilarityFields []string
	// SortField breaks ties, newest first. Defaults to created_at.
	SortField  string
	MaxResults int
}

// Validate rejects non-identifier collection and field names.
func (c Config) Validate() error {
	if err := c.rankedQuery("").Validate(); err != nil {
		return fmt.Errorf("search config for %q: %w", c.Collection, err)
	}
	return nil
}

func (c Config) prefix() string {
	if c.CachePrefix != "" {
		return c.CachePrefix
	}
	return c.Collection
}

func (c Config) domain() string {
	if c.VersionDomain != "" {
		return c.VersionDomain
	}
	return c.Collection
}

func (c Config) limit() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return DefaultMaxResults
}

func (c Config) hasFields() bool {
	return len(c.ExactFields)+len(c.PrefixFields)+len(c.SimilarityFields) > 0
}

func (c Config) rankedQuery(term string) records.RankedQuery {
	return records.RankedQuery{
		Collection: c.Collection,
		Term:       term,
		Exact:      c.ExactFields,
		Prefix:     c.PrefixFields,
		Similar:    c.SimilarityFields,
		SortField:  c.SortField,
		Limit:      c.limit(),
	}
}
