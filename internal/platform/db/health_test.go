package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runCheck(t *testing.T, h echo.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestCheckHandler_Healthy(t *testing.T) {
	h := CheckHandler(func(context.Context) error { return nil }, func() interface{} {
		return &PoolStats{TotalConns: 2, MaxConns: 10}
	})
	code, body := runCheck(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
	details, ok := body["details"].(map[string]interface{})
	if !ok || details["max_conns"] != float64(10) {
		t.Errorf("expected pool details, got %v", body["details"])
	}
}

func TestCheckHandler_Unhealthy(t *testing.T) {
	h := CheckHandler(func(context.Context) error { return errors.New("connection refused") }, nil)
	code, body := runCheck(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" || body["error"] != "connection refused" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["details"]; ok {
		t.Error("expected no details when none are provided")
	}
}
