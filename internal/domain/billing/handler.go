package billing

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/invoices", h.ListInvoices)
	api.GET("/invoices/search", h.SearchInvoices)
	api.GET("/invoices/:id", h.GetInvoice)
	api.POST("/invoices", h.CreateInvoice)
	api.PUT("/invoices/:id", h.UpdateInvoice)
	api.DELETE("/invoices/:id", h.DeleteInvoice)
}

type searchParams struct {
	Q string `query:"q" validate:"required,max=100"`
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	f, extra, err := filterFromQuery(c.QueryParams())
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var page *paging.Page
	if len(extra) == 0 {
		page, err = h.svc.ListInvoices(ctx, pg.Limit, pg.CursorValue())
	} else {
		page, err = h.svc.ListInvoicesFiltered(ctx, pg.Limit, pg.CursorValue(), f)
	}
	if err != nil {
		return err
	}

	if next := pg.NextLink(c.Request().URL.Path, page.NextCursor, extra...); next != "" {
		c.Response().Header().Set("Link", "<"+next+`>; rel="next"`)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page.Data, page.NextCursor, pg.Limit))
}

func (h *Handler) SearchInvoices(c echo.Context) error {
	var sp searchParams
	if err := c.Bind(&sp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&sp); err != nil {
		return err
	}
	rows, err := h.svc.SearchInvoices(c.Request().Context(), sp.Q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "count": len(rows)})
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	inv, err := h.svc.CreateInvoice(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) UpdateInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	inv, err := h.svc.UpdateInvoice(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInvoice(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", records.ErrInvalidInput)
	}
	return id, nil
}

// filterFromQuery reads status, patient_id, min_amount, max_amount,
// issued_from and issued_to. extra re-encodes them for the next-page link.
func filterFromQuery(q url.Values) (Filter, []string, error) {
	var f Filter
	var extra []string
	bad := func(name, want string) error {
		return fmt.Errorf("%w: %s must be %s", records.ErrInvalidInput, name, want)
	}

	if v := q.Get("status"); v != "" {
		f.Status = v
		extra = append(extra, "status="+url.QueryEscape(v))
	}
	if v := q.Get("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, nil, bad("patient_id", "a positive integer")
		}
		f.PatientID = id
		extra = append(extra, "patient_id="+v)
	}
	for _, p := range []struct {
		name string
		dst  **float64
	}{{"min_amount", &f.MinAmount}, {"max_amount", &f.MaxAmount}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Filter{}, nil, bad(p.name, "a number")
		}
		*p.dst = &n
		extra = append(extra, p.name+"="+v)
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"issued_from", &f.IssuedFrom}, {"issued_to", &f.IssuedTo}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return Filter{}, nil, bad(p.name, "YYYY-MM-DD")
		}
		*p.dst = &t
		extra = append(extra, p.name+"="+v)
	}
	return f, extra, nil
}
