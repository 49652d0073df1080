package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"1M":    1 << 20,
		"2mb":   2 << 20,
		" 64K ": 64 << 10,
		"1G":    1 << 30,
		"4096":  4096,
		"":      1 << 20,
		"lots":  1 << 20,
		"0":     1 << 20,
		"-1K":   1 << 20,
	}
	for in, want := range tests {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	e := echo.New()
	e.Use(BodyLimit("1K"))
	e.POST("/api/v1/ledger-entries", func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusCreated, string(b))
	})

	small := `{"account":"cash","entry_type":"debit","amount":12.5}`
	big := bytes.Repeat([]byte("x"), 2048)

	tests := []struct {
		name          string
		body          io.Reader
		contentLength int64
		want          int
	}{
		{"within limit", strings.NewReader(small), int64(len(small)), http.StatusCreated},
		{"declared too large", bytes.NewReader(big), int64(len(big)), http.StatusRequestEntityTooLarge},
		{"undeclared too large", bytes.NewReader(big), -1, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger-entries", tt.body)
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if tt.want == http.StatusCreated && rec.Body.String() != small {
				t.Errorf("body not passed through intact: %s", rec.Body)
			}
		})
	}
}
