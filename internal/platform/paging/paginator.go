// Package paging serves forward-only keyset pages of a collection through the
// memory and remote cache tiers.
package paging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

const engineName = "page"

// DefaultCursorField is used when a request names no cursor field.
const DefaultCursorField = "id"

// ErrInvalidLimit is returned for a non-positive page size.
var ErrInvalidLimit = errors.New("limit must be positive")

// Request identifies one page. A nil Cursor asks for the first page.
type Request struct {
	Collection  string
	CursorField string
	Limit       int
	Cursor      interface{}
	Filters     records.Filters
	// Domain selects the cache version counter. Defaults to Collection.
	Domain string
}

// Page is a slice of records plus the cursor of the next page, nil when the
// collection is exhausted.
type Page struct {
	Data       []records.Record `json:"data"`
	NextCursor interface{}      `json:"nextCursor"`
}

// Options controls cache lifetimes.
type Options struct {
	MemoryTTL time.Duration
	RemoteTTL time.Duration
}

// DefaultOptions returns the standard page cache lifetimes.
func DefaultOptions() Options {
	return Options{MemoryTTL: 30 * time.Second, RemoteTTL: 120 * time.Second}
}

// Paginator serves pages of any collection.
type Paginator struct {
	store  records.Store
	tiers  *cache.Tiers
	opts   Options
	tracer trace.Tracer
	logger zerolog.Logger
}

// New creates a Paginator.
func New(store records.Store, tiers *cache.Tiers, opts Options, logger zerolog.Logger) *Paginator {
	d := DefaultOptions()
	if opts.MemoryTTL <= 0 {
		opts.MemoryTTL = d.MemoryTTL
	}
	if opts.RemoteTTL <= 0 {
		opts.RemoteTTL = d.RemoteTTL
	}
	return &Paginator{
		store:  store,
		tiers:  tiers,
		opts:   opts,
		tracer: otel.Tracer("hms/paging"),
		logger: logger.With().Str("component", "paginator").Logger(),
	}
}

// Paginate returns the page described by req, from cache when possible.
// Store errors are returned; cache failures never are.
func (p *Paginator) Paginate(ctx context.Context, req Request) (*Page, error) {
	if req.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if req.CursorField == "" {
		req.CursorField = DefaultCursorField
	}
	query := req.query()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	domain := req.Domain
	if domain == "" {
		domain = req.Collection
	}
	key := req.key(p.tiers.Versions.Version(ctx, domain))

	if e, ok := p.tiers.Memory.Get(key, p.opts.MemoryTTL); ok {
		cache.RecordLookup(engineName, cache.TierMemory, true)
		return &Page{Data: e.Records, NextCursor: e.NextCursor}, nil
	}
	cache.RecordLookup(engineName, cache.TierMemory, false)

	if raw, ok := p.tiers.Remote.Get(ctx, key); ok {
		var page Page
		err := cache.Decode(raw, &page)
		if err == nil {
			cache.RecordLookup(engineName, cache.TierRemote, true)
			if page.Data == nil {
				page.Data = []records.Record{}
			}
			p.tiers.Memory.Set(key, cache.EntryFromRecords(page.Data, page.NextCursor))
			return &page, nil
		}
		p.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached page")
	}
	cache.RecordLookup(engineName, cache.TierRemote, false)

	page, err := p.fetch(ctx, req, query)
	if err != nil {
		return nil, err
	}

	p.tiers.Writer.Go(ctx, key, func(ctx context.Context) error {
		p.tiers.Memory.Set(key, cache.EntryFromRecords(page.Data, page.NextCursor))
		raw, err := cache.Encode(page)
		if err != nil {
			return err
		}
		p.tiers.Remote.Set(ctx, key, raw, p.opts.RemoteTTL)
		return nil
	})
	return page, nil
}

func (p *Paginator) fetch(ctx context.Context, req Request, query records.Query) (*Page, error) {
	ctx, span := p.tracer.Start(ctx, "paging.fetch", trace.WithAttributes(
		attribute.String("collection", req.Collection),
		attribute.Int("limit", req.Limit),
		attribute.Bool("filtered", len(req.Filters) > 0),
	))
	defer span.End()

	cache.RecordStoreFetch(engineName, req.Collection)
	rows, err := p.store.FindMany(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find many failed")
		return nil, fmt.Errorf("paginate %s: %w", req.Collection, err)
	}

	page := &Page{Data: rows}
	if len(rows) > req.Limit {
		page.Data = rows[:req.Limit]
		page.NextCursor = page.Data[req.Limit-1][req.CursorField]
	}
	if page.Data == nil {
		page.Data = []records.Record{}
	}
	return page, nil
}

// query fetches one row past the page to learn whether another page exists.
func (r Request) query() records.Query {
	var where []records.Condition
	if hasCursor(r.Cursor) {
		where = append(where, records.Condition{Field: r.CursorField, Op: records.OpGt, Value: r.Cursor})
	}
	where = append(where, r.Filters.Conditions()...)
	return records.Query{
		Collection: r.Collection,
		Where:      where,
		OrderBy:    r.CursorField,
		Take:       r.Limit + 1,
	}
}

func (r Request) key(version int) string {
	cursor := r.Cursor
	if !hasCursor(cursor) {
		cursor = nil
	}
	if len(r.Filters) == 0 {
		return cache.PageKey(r.Collection, version, cursor, r.Limit)
	}
	return cache.FilteredPageKey(r.Collection, version, cursor, r.Limit, r.Filters)
}

func hasCursor(c interface{}) bool {
	if c == nil {
		return false
	}
	if s, ok := c.(string); ok && s == "" {
		return false
	}
	return true
}
