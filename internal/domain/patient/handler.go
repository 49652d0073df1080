package patient

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
	api.GET("/patients", h.List)
	api.GET("/patients/search", h.Search)
	api.GET("/patients/:id", h.Get)
	api.POST("/patients", h.Create)
	api.PUT("/patients/:id", h.Update)
	api.DELETE("/patients/:id", h.Delete)
}

// SearchParams is the query of GET /patients/search.
type SearchParams struct {
	Q string `query:"q" json:"q" validate:"required,max=100"`
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
	var sp SearchParams
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
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
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
	p, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
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

// filterFromQuery reads the supported filter parameters. extra holds them
// re-encoded for the next-page link; it is empty when no filter was given.
func filterFromQuery(q url.Values) (Filter, []string, error) {
	var f Filter
	var extra []string

	if g := q.Get("gender"); g != "" {
		f.Gender = g
		extra = append(extra, "gender="+url.QueryEscape(g))
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"born_from", &f.BornFrom}, {"born_to", &f.BornTo}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return Filter{}, nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", records.ErrInvalidInput, p.name)
		}
		*p.dst = &t
		extra = append(extra, p.name+"="+v)
	}
	return f, extra, nil
}
