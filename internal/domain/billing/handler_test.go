package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
	"github.com/riteshgharti333/hospital-management-app-sub002/pkg/validation"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	env := newMemoryEnv()
	seedInvoices(t, env)
	e := echo.New()
	e.Validator = validation.New()
	return NewHandler(env.svc), e
}

func TestHandler_CreateInvoice(t *testing.T) {
	h, e := newTestHandler(t)

	body := `{"invoice_number":"INV-9","patient_id":4,"patient_name":"Katherine Johnson","total_amount":250,"issued_at":"2024-04-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreateInvoice(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var inv Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inv.ID != 6 || inv.Status != StatusDraft {
		t.Errorf("unexpected invoice %+v", inv)
	}
}

func TestHandler_CreateInvoice_BadStatus(t *testing.T) {
	h, e := newTestHandler(t)

	body := `{"invoice_number":"INV-9","patient_id":4,"patient_name":"K","status":"lost"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	err := h.CreateInvoice(e.NewContext(req, httptest.NewRecorder()))
	if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListInvoices_Filtered(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?status=paid&limit=2", nil)
	rec := httptest.NewRecorder()
	if err := h.ListInvoices(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data       []map[string]interface{} `json:"data"`
		NextCursor interface{}              `json:"nextCursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 2 || resp.NextCursor != float64(3) {
		t.Errorf("unexpected page %+v", resp)
	}
	if link := rec.Header().Get("Link"); link != `</api/v1/invoices?limit=2&cursor=3&status=paid>; rel="next"` {
		t.Errorf("unexpected Link header %q", link)
	}
}

func TestHandler_ListInvoices_BadFilters(t *testing.T) {
	h, e := newTestHandler(t)

	for _, q := range []string{"patient_id=x", "min_amount=lots", "issued_to=2024/01/01"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?"+q, nil)
		if err := h.ListInvoices(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, records.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", q, err)
		}
	}
}

func TestHandler_SearchInvoices(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/search?q=INV-2024-00", nil)
	rec := httptest.NewRecorder()
	if err := h.SearchInvoices(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"count":5`) {
		t.Errorf("expected all five invoices by prefix, got %s", rec.Body.String())
	}
}

func TestHandler_DeleteInvoice_NotFound(t *testing.T) {
	h, e := newTestHandler(t)

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("77")
	if err := h.DeleteInvoice(c); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
