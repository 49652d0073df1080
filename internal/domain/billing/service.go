package billing

import (
	"context"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/search"
)

type Service struct {
	invoices InvoiceRepository
	pages    *paging.Paginator
	searcher *search.Service
	versions *cache.VersionRegistry
}

func NewService(invoices InvoiceRepository, pages *paging.Paginator, searcher *search.Service, versions *cache.VersionRegistry) *Service {
	return &Service{invoices: invoices, pages: pages, searcher: searcher, versions: versions}
}

func (s *Service) ListInvoices(ctx context.Context, limit int, cursor interface{}) (*paging.Page, error) {
	return s.pages.Paginate(ctx, paging.Request{Collection: Collection, Limit: limit, Cursor: cursor})
}

// ListInvoicesFiltered pages through invoices matching f. Each distinct
// filter set is cached under its own key.
func (s *Service) ListInvoicesFiltered(ctx context.Context, limit int, cursor interface{}, f Filter) (*paging.Page, error) {
	return s.pages.Paginate(ctx, paging.Request{
		Collection: Collection,
		Limit:      limit,
		Cursor:     cursor,
		Filters:    f.filters(),
	})
}

func (s *Service) SearchInvoices(ctx context.Context, term string) ([]records.Record, error) {
	return s.searcher.Search(ctx, term, SearchConfig)
}

func (s *Service) CreateInvoice(ctx context.Context, in Input) (*Invoice, error) {
	var inv Invoice
	if err := in.apply(&inv); err != nil {
		return nil, err
	}
	if err := s.invoices.Create(ctx, &inv); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return &inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) UpdateInvoice(ctx context.Context, id int64, in Input) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(inv); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.versions.Bump(ctx, Collection)
	return inv, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	if err := s.invoices.Delete(ctx, id); err != nil {
		return err
	}
	s.versions.Bump(ctx, Collection)
	return nil
}
