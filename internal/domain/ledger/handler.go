package ledger

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
	g := api.Group("/ledger-entries")
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type searchParams struct {
	Q string `query:"q" validate:"required,max=100"`
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f, extra, err := filterFromQuery(c.QueryParams())
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var page *paging.Page
	if len(extra) == 0 {
		page, err = h.svc.List(ctx, pg.Limit, pg.CursorValue())
	} else {
		page, err = h.svc.ListFiltered(ctx, pg.Limit, pg.CursorValue(), f)
	}
	if err != nil {
		return err
	}

	if next := pg.NextLink(c.Request().URL.Path, page.NextCursor, extra...); next != "" {
		c.Response().Header().Set("Link", "<"+next+`>; rel="next"`)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page.Data, page.NextCursor, pg.Limit))
}

func (h *Handler) Search(c echo.Context) error {
	var sp searchParams
	if err := c.Bind(&sp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&sp); err != nil {
		return err
	}
	rows, err := h.svc.Search(c.Request().Context(), sp.Q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "count": len(rows)})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	e, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Update(c echo.Context) error {
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
	e, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
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

// filterFromQuery accepts account, entry_type and an RFC 3339 from/to window
// on occurred_at.
func filterFromQuery(q url.Values) (Filter, []string, error) {
	var f Filter
	var extra []string

	if a := q.Get("account"); a != "" {
		f.Account = a
		extra = append(extra, "account="+url.QueryEscape(a))
	}
	if t := q.Get("entry_type"); t != "" {
		if t != Debit && t != Credit {
			return Filter{}, nil, fmt.Errorf("%w: entry_type must be debit or credit", records.ErrInvalidInput)
		}
		f.EntryType = t
		extra = append(extra, "entry_type="+t)
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, nil, fmt.Errorf("%w: %s must be RFC 3339", records.ErrInvalidInput, p.name)
		}
		t = t.UTC()
		*p.dst = &t
		extra = append(extra, p.name+"="+url.QueryEscape(v))
	}
	return f, extra, nil
}
