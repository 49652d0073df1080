package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTStore talks to an HTTP key-value endpoint:
//
//	GET  {base}/get/{key}
//	POST {base}/set/{key}/{value}?EX={seconds}
//	POST {base}/del/{key}
//
// Responses are JSON objects of the form {"result": ..., "error": "..."}.
type RESTStore struct {
	http *resty.Client
}

type restReply struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// NewRESTStore creates a RESTStore. The token is sent as a bearer token.
func NewRESTStore(baseURL, token string) *RESTStore {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &RESTStore{http: c}
}

func (s *RESTStore) Get(ctx context.Context, key string) (string, bool, error) {
	reply, err := s.do(ctx, s.http.R().SetPathParam("key", key), "GET", "/get/{key}")
	if err != nil {
		return "", false, err
	}
	if len(reply.Result) == 0 || string(reply.Result) == "null" {
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(reply.Result, &value); err != nil {
		// Non-string results (numbers from INCR and the like) are returned raw.
		return string(reply.Result), true, nil
	}
	return value, true, nil
}

func (s *RESTStore) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	req := s.http.R().
		SetPathParam("key", key).
		SetPathParam("value", value)
	if secs := int64(expiry / time.Second); secs > 0 {
		req.SetQueryParam("EX", strconv.FormatInt(secs, 10))
	}
	_, err := s.do(ctx, req, "POST", "/set/{key}/{value}")
	return err
}

func (s *RESTStore) Delete(ctx context.Context, key string) error {
	_, err := s.do(ctx, s.http.R().SetPathParam("key", key), "POST", "/del/{key}")
	return err
}

func (s *RESTStore) do(ctx context.Context, req *resty.Request, method, path string) (*restReply, error) {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("rest cache %s %s: %w", method, path, err)
	}

	var reply restReply
	if body := resp.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &reply); err != nil && !resp.IsError() {
			return nil, fmt.Errorf("rest cache %s %s: decode reply: %w", method, path, err)
		}
	}
	if resp.IsError() {
		msg := reply.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("rest cache %s %s: status %d: %s", method, path, resp.StatusCode(), msg)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("rest cache %s %s: %s", method, path, reply.Error)
	}
	return &reply, nil
}
