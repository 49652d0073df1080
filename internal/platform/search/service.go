// Package search ranks records by exact, prefix and trigram-similarity
// matches and caches non-empty result sets in both cache tiers.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

const (
	engineName = "search"
	// MinTermLength is the shortest normalized term that triggers a search.
	MinTermLength = 2
)

// Options controls cache lifetimes and the remote race window.
type Options struct {
	MemoryTTL   time.Duration
	RemoteTTL   time.Duration
	FastTimeout time.Duration
}

// DefaultOptions returns the standard search cache settings.
func DefaultOptions() Options {
	return Options{
		MemoryTTL:   10 * time.Second,
		RemoteTTL:   60 * time.Second,
		FastTimeout: 5 * time.Millisecond,
	}
}

// Service runs ranked searches.
type Service struct {
	store  records.Store
	tiers  *cache.Tiers
	opts   Options
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewService creates a Service.
func NewService(store records.Store, tiers *cache.Tiers, opts Options, logger zerolog.Logger) *Service {
	d := DefaultOptions()
	if opts.MemoryTTL <= 0 {
		opts.MemoryTTL = d.MemoryTTL
	}
	if opts.RemoteTTL <= 0 {
		opts.RemoteTTL = d.RemoteTTL
	}
	if opts.FastTimeout <= 0 {
		opts.FastTimeout = d.FastTimeout
	}
	return &Service{
		store:  store,
		tiers:  tiers,
		opts:   opts,
		tracer: otel.Tracer("hms/search"),
		logger: logger.With().Str("component", "search").Logger(),
	}
}

// Normalize trims and lowercases a raw search term.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Search returns records matching term under cfg, best matches first. Terms
// shorter than MinTermLength and configs without fields return an empty
// result without any I/O.
func (s *Service) Search(ctx context.Context, term string, cfg Config) ([]records.Record, error) {
	term = Normalize(term)
	if utf8.RuneCountInString(term) < MinTermLength || !cfg.hasFields() {
		return []records.Record{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key := cache.SearchKey(cfg.prefix(), s.tiers.Versions.Version(ctx, cfg.domain()), term)

	if e, ok := s.tiers.Memory.Get(key, s.opts.MemoryTTL); ok {
		cache.RecordLookup(engineName, cache.TierMemory, true)
		return e.Records, nil
	}
	cache.RecordLookup(engineName, cache.TierMemory, false)

	if raw, ok := s.tiers.Remote.GetFast(ctx, key, s.opts.FastTimeout); ok {
		var rows []records.Record
		err := cache.Decode(raw, &rows)
		if err == nil && len(rows) > 0 {
			cache.RecordLookup(engineName, cache.TierRemote, true)
			s.tiers.Memory.Set(key, cache.EntryFromRecords(rows, nil))
			return rows, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached search")
		}
	}
	cache.RecordLookup(engineName, cache.TierRemote, false)

	rows, err := s.fetch(ctx, term, cfg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []records.Record{}, nil
	}

	s.tiers.Writer.Go(ctx, key, func(ctx context.Context) error {
		s.tiers.Memory.Set(key, cache.EntryFromRecords(rows, nil))
		raw, err := cache.Encode(rows)
		if err != nil {
			return err
		}
		s.tiers.Remote.Set(ctx, key, raw, s.opts.RemoteTTL)
		return nil
	})
	return rows, nil
}

func (s *Service) fetch(ctx context.Context, term string, cfg Config) ([]records.Record, error) {
	ctx, span := s.tracer.Start(ctx, "search.fetch", trace.WithAttributes(
		attribute.String("collection", cfg.Collection),
		attribute.Int("term_length", utf8.RuneCountInString(term)),
	))
	defer span.End()

	cache.RecordStoreFetch(engineName, cfg.Collection)
	rows, err := s.store.FindRanked(ctx, cfg.rankedQuery(term))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranked search failed")
		return nil, fmt.Errorf("search %s: %w", cfg.Collection, err)
	}
	return rows, nil
}
