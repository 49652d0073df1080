// Package cache implements the two cache tiers in front of the record store:
// a bounded in-process memory cache and a best-effort remote key-value cache,
// plus the per-domain version registry used for bulk invalidation.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// RemoteStore is a remote key-value backend. Get reports a miss with
// found=false and a nil error.
type RemoteStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, expiry time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NopStore is used when no remote cache is configured. Every Get misses.
type NopStore struct{}

func (NopStore) Get(context.Context, string) (string, bool, error)          { return "", false, nil }
func (NopStore) Set(context.Context, string, string, time.Duration) error { return nil }
func (NopStore) Delete(context.Context, string) error                      { return nil }

// ClientConfig tunes the remote cache client.
type ClientConfig struct {
	Name       string
	Timeout    time.Duration // per call, retries included
	Retries    int           // extra attempts after the first
	RetryDelay time.Duration // backoff step; attempt n waits n*RetryDelay
	Cooldown   time.Duration // how long the breaker stays open
}

// DefaultClientConfig returns the defaults used by the server.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Name:       "remote-cache",
		Timeout:    time.Second,
		Retries:    2,
		RetryDelay: 50 * time.Millisecond,
		Cooldown:   30 * time.Second,
	}
}

func (c *ClientConfig) applyDefaults() {
	d := DefaultClientConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
}

// Client wraps a RemoteStore with a timeout, linear-backoff retries and a
// circuit breaker. It never returns errors to callers: failures degrade to a
// miss (Get) or a no-op (Set, Delete).
type Client struct {
	store   RemoteStore
	cfg     ClientConfig
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewClient creates a Client over store.
func NewClient(store RemoteStore, cfg ClientConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	if store == nil {
		store = NopStore{}
	}
	c := &Client{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", cfg.Name).Logger(),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			// The caller going away says nothing about the remote's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("remote cache breaker state changed")
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return c
}

// Healthy reports whether calls are currently being attempted.
func (c *Client) Healthy() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

// State returns the breaker state name.
func (c *Client) State() string {
	return c.breaker.State().String()
}

type getResult struct {
	value string
	found bool
}

// Get returns the cached value for key. Misses, timeouts, errors and an open
// breaker all report found=false.
func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	out, err := c.execute(ctx, "get", func(ctx context.Context) (any, error) {
		v, found, err := c.store.Get(ctx, key)
		return getResult{value: v, found: found}, err
	})
	if err != nil {
		c.logFailure("get", key, err)
		return "", false
	}
	res, _ := out.(getResult)
	return res.value, res.found
}

// GetFast races Get against wait. Losing the race is a miss; the underlying
// call still completes in the background and updates breaker health.
func (c *Client) GetFast(ctx context.Context, key string, wait time.Duration) (string, bool) {
	if !c.Healthy() {
		return "", false
	}
	ch := make(chan getResult, 1)
	go func() {
		v, ok := c.Get(ctx, key)
		ch <- getResult{value: v, found: ok}
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.value, res.found
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// Set stores value under key. An expiry of zero means no expiry.
func (c *Client) Set(ctx context.Context, key, value string, expiry time.Duration) {
	_, err := c.execute(ctx, "set", func(ctx context.Context) (any, error) {
		return nil, c.store.Set(ctx, key, value, expiry)
	})
	if err != nil {
		c.logFailure("set", key, err)
	}
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) {
	_, err := c.execute(ctx, "delete", func(ctx context.Context) (any, error) {
		return nil, c.store.Delete(ctx, key)
	})
	if err != nil {
		c.logFailure("delete", key, err)
	}
}

func (c *Client) execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return c.breaker.Execute(func() (interface{}, error) {
		var out any
		err := retry.Do(
			func() error {
				v, err := bounded(ctx, fn)
				if err == nil {
					out = v
				}
				return err
			},
			retry.Context(ctx),
			retry.Attempts(uint(c.cfg.Retries+1)),
			retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
				return time.Duration(n+1) * c.cfg.RetryDelay
			}),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				c.logger.Debug().Str("op", op).Uint("attempt", n+1).Err(err).Msg("retrying remote cache call")
			}),
		)
		if err != nil {
			remoteFailures.WithLabelValues(op).Inc()
		}
		return out, err
	})
}

func (c *Client) logFailure(op, key string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Debug().Str("op", op).Str("key", key).Msg("remote cache short-circuited")
		return
	}
	c.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("remote cache call failed")
}

// bounded runs fn but returns as soon as ctx is done, even when fn ignores
// cancellation.
func bounded(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
