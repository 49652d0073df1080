package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/config"
)

func testConfig(env string) *config.Config {
	return &config.Config{
		Port:            "0",
		Env:             env,
		LogLevel:        "error",
		StoreBackend:    config.StoreMemory,
		CORSOrigins:     []string{"http://localhost:5173"},
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
		RequestTimeout:  5 * time.Second,
		CacheBackend:    config.CacheLocal,
		CacheTimeout:    time.Second,
		CacheRetries:    0,
		MemoryCacheSize: 100,
	}
}

func newTestServer(t *testing.T, env string) (*app, *echo.Echo) {
	t.Helper()
	a, err := newApp(context.Background(), testConfig(env), zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a, a.newServer()
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("development")
	cfg.CacheBackend = "memcached"
	if _, err := newApp(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected config error")
	}
}

func TestServer_PatientLifecycle(t *testing.T) {
	a, e := newTestServer(t, "test")

	rec := do(e, http.MethodPost, "/api/v1/patients", `{"mrn":"MRN-1","first_name":"Ada","last_name":"Lovelace"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	rec = do(e, http.MethodPost, "/api/v1/patients", `{"mrn":"MRN-1","first_name":"Ada","last_name":"King"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate mrn: expected 409, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/api/v1/patients?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if data := decode(t, rec)["data"].([]interface{}); len(data) != 1 {
		t.Errorf("expected 1 patient, got %d", len(data))
	}
	a.tiers.Writer.Wait()

	rec = do(e, http.MethodGet, "/api/v1/patients/search?q=ada", "")
	if rec.Code != http.StatusOK || decode(t, rec)["count"] != float64(1) {
		t.Errorf("search: unexpected %d %s", rec.Code, rec.Body)
	}

	rec = do(e, http.MethodPut, "/api/v1/patients/1", `{"mrn":"MRN-1","first_name":"Ada","last_name":"King"}`)
	if rec.Code != http.StatusOK || decode(t, rec)["full_name"] != "Ada King" {
		t.Errorf("update: unexpected %d %s", rec.Code, rec.Body)
	}

	rec = do(e, http.MethodDelete, "/api/v1/patients/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/api/v1/patients/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["request_id"] == "" || body["message"] == nil {
		t.Errorf("expected message and request_id, got %v", body)
	}

	rec = do(e, http.MethodGet, "/api/v1/patients?limit=10", "")
	if data := decode(t, rec)["data"].([]interface{}); len(data) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(data))
	}
}

func TestServer_ValidationErrors(t *testing.T) {
	_, e := newTestServer(t, "test")

	rec := do(e, http.MethodPost, "/api/v1/invoices", `{"invoice_number":" ","patient_id":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	msgs, ok := decode(t, rec)["message"].([]interface{})
	if !ok || len(msgs) < 2 {
		t.Errorf("expected field messages, got %s", rec.Body)
	}

	rec = do(e, http.MethodGet, "/api/v1/ledger-entries/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestServer_ListPagination(t *testing.T) {
	_, e := newTestServer(t, "test")

	for _, body := range []string{
		`{"account":"cash","entry_type":"debit","amount":10}`,
		`{"account":"cash","entry_type":"credit","amount":20}`,
		`{"account":"cash","entry_type":"debit","amount":30}`,
	} {
		if rec := do(e, http.MethodPost, "/api/v1/ledger-entries", body); rec.Code != http.StatusCreated {
			t.Fatalf("create: %d %s", rec.Code, rec.Body)
		}
	}

	rec := do(e, http.MethodGet, "/api/v1/ledger-entries?limit=2", "")
	page := decode(t, rec)
	if page["nextCursor"] != float64(2) || page["has_more"] != true {
		t.Fatalf("unexpected first page %v", page)
	}
	if link := rec.Header().Get("Link"); link != `</api/v1/ledger-entries?limit=2&cursor=2>; rel="next"` {
		t.Errorf("unexpected Link %q", link)
	}

	rec = do(e, http.MethodGet, "/api/v1/ledger-entries?limit=2&cursor=2", "")
	page = decode(t, rec)
	if page["nextCursor"] != nil || len(page["data"].([]interface{})) != 1 {
		t.Errorf("unexpected last page %v", page)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	_, e := newTestServer(t, "test")

	for _, path := range []string{"/health", "/health/db", "/health/cache", "/metrics"} {
		if rec := do(e, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := do(e, http.MethodGet, "/health/cache", "")
	details := decode(t, rec)["details"].(map[string]interface{})
	if details["backend"] != config.CacheLocal || details["breaker"] != "closed" {
		t.Errorf("unexpected cache details %v", details)
	}
}

func TestServer_SandboxOnlyInDevelopment(t *testing.T) {
	_, prod := newTestServer(t, "test")
	if rec := do(prod, http.MethodPost, "/api/v1/sandbox/seed", `{"patientCount":1}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected sandbox route hidden, got %d", rec.Code)
	}

	_, dev := newTestServer(t, "development")
	rec := do(dev, http.MethodPost, "/api/v1/sandbox/seed", `{"patientCount":2,"invoicesPerPatient":1,"seed":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	rec = do(dev, http.MethodGet, "/api/v1/patients", "")
	if data := decode(t, rec)["data"].([]interface{}); len(data) != 2 {
		t.Errorf("expected seeded patients, got %d", len(data))
	}
}

func TestCacheBump_UnknownDomain(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"cache", "bump", "pharmacy"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); !errors.Is(err, errUnknownDomain) {
		t.Fatalf("expected errUnknownDomain, got %v", err)
	}
}

func TestCacheBump_RequiresSharedBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "local")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"cache", "bump", "patients"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "no shared state") {
		t.Fatalf("expected shared backend error, got %v", err)
	}
}

func TestDomainRegistry(t *testing.T) {
	reg := domainRegistry()
	for name, want := range map[string]string{
		"patients":       "patients",
		"invoices":       "invoices",
		"ledger":         "ledger_entries",
		"ledger_entries": "ledger_entries",
	} {
		if got, ok := reg.Collection(name); !ok || got != want {
			t.Errorf("%s: expected %s, got %q", name, want, got)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig("production")
	cfg.LogLevel = "warn"
	logger := newLogger(cfg, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, nil)
	if !strings.HasPrefix(buf.String(), "VERSION") {
		t.Errorf("expected header, got %q", buf.String())
	}
}
