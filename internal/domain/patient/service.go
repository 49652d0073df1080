package patient

import (
	"context"

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
}

func NewService(repo Repository, pages *paging.Paginator, searcher *search.Service, versions *cache.VersionRegistry) *Service {
	return &Service{repo: repo, pages: pages, searcher: searcher, versions: versions}
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

func (s *Service) Create(ctx context.Context, in Input) (*Patient, error) {
	var p Patient
	if err := in.apply(&p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.versions.Bump(ctx, Collection)
	return nil
}
