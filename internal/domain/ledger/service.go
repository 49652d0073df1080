package ledger

import (
	"context"
	"time"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

type Service struct {
	repo     Repository
	pages    *paging.Paginator
	searcher *search.Service
	versions *cache.VersionRegistry
	now      func() time.Time
}

func NewService(repo Repository, pages *paging.Paginator, searcher *search.Service, versions *cache.VersionRegistry) *Service {
	return &Service{repo: repo, pages: pages, searcher: searcher, versions: versions, now: time.Now}
}

func (s *Service) List(ctx context.Context, limit int, cursor interface{}) (*paging.Page, error) {
	return s.pages.Paginate(ctx, paging.Request{Collection: Collection, Limit: limit, Cursor: cursor})
}

func (s *Service) ListFiltered(ctx context.Context, limit int, cursor interface{}, f Filter) (*paging.Page, error) {
	return s.pages.Paginate(ctx, paging.Request{
		Collection: Collection,
		Limit:      limit,
		Cursor:     cursor,
		Filters:    f.filters(),
	})
}

func (s *Service) Search(ctx context.Context, term string) ([]records.Record, error) {
	return s.searcher.Search(ctx, term, SearchConfig)
}

func (s *Service) Create(ctx context.Context, in Input) (*Entry, error) {
	var e Entry
	if err := in.apply(&e, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &e); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return &e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

// Update rewrites an entry. An omitted occurred_at keeps the stored time.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(e, e.OccurredAt); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.versions.Bump(ctx, Collection)
	return nil
}
