package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// maxCursorLen bounds cursor tokens so they cannot bloat cache keys.
	maxCursorLen = 128
)

// Params holds cursor pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Cursor string
}

// FromContext extracts pagination parameters from the echo context. Missing
// or non-positive limits fall back to DefaultLimit and large ones are capped
// at MaxLimit.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	cursor := strings.TrimSpace(c.QueryParam("cursor"))
	if len(cursor) > maxCursorLen {
		cursor = cursor[:maxCursorLen]
	}

	return Params{Limit: limit, Cursor: cursor}
}

// CursorValue returns the cursor typed for comparison against the cursor
// column: nil for the first page, int64 for numeric cursors, else the raw
// string.
func (p Params) CursorValue() interface{} {
	if p.Cursor == "" {
		return nil
	}
	if n, err := strconv.ParseInt(p.Cursor, 10, 64); err == nil {
		return n
	}
	return p.Cursor
}

// Response wraps a cursor-paginated API response.
type Response struct {
	Data       interface{} `json:"data"`
	NextCursor interface{} `json:"nextCursor"`
	Limit      int         `json:"limit"`
	HasMore    bool        `json:"has_more"`
}

func NewResponse(data, nextCursor interface{}, limit int) *Response {
	return &Response{
		Data:       data,
		NextCursor: nextCursor,
		Limit:      limit,
		HasMore:    nextCursor != nil,
	}
}

// NextLink returns the URL of the following page, or "" on the last page.
// basePath should be the request path (e.g. "/api/v1/patients"); extra holds
// filter parameters already encoded as "key=value".
func (p Params) NextLink(basePath string, nextCursor interface{}, extra ...string) string {
	if nextCursor == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(basePath)
	b.WriteString("?limit=")
	b.WriteString(strconv.Itoa(p.Limit))
	b.WriteString("&cursor=")
	b.WriteString(url.QueryEscape(cursorString(nextCursor)))
	for _, kv := range extra {
		b.WriteByte('&')
		b.WriteString(kv)
	}
	return b.String()
}

func cursorString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case interface{ String() string }:
		return t.String()
	default:
		return ""
	}
}
