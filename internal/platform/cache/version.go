package cache

import (
	"context"
	"strconv"
	"sync"
)

const versionKeyPrefix = "cv:"

// VersionRegistry keeps one integer version per cache domain in the remote
// tier. Bumping a domain's version orphans every key built with the old one.
//
// The registry also remembers the highest version it has seen or written per
// domain. That floor is what a process falls back to when the remote tier is
// missing, unreachable or behind, so a local bump always takes effect locally
// and a version never moves backwards within one process.
type VersionRegistry struct {
	client *Client

	mu    sync.Mutex
	floor map[string]int
}

// NewVersionRegistry creates a VersionRegistry over client.
func NewVersionRegistry(client *Client) *VersionRegistry {
	return &VersionRegistry{client: client, floor: make(map[string]int)}
}

// VersionKey returns the remote key holding domain's version.
func VersionKey(domain string) string {
	return versionKeyPrefix + domain
}

// Version returns the current version of domain: the larger of the remote
// value and the local floor, or 1 when neither is known.
func (r *VersionRegistry) Version(ctx context.Context, domain string) int {
	return r.observe(domain, r.remote(ctx, domain))
}

// Bump increments domain's version and returns the new value. The read and
// write are separate calls, so concurrent bumps across processes may collapse
// into one.
func (r *VersionRegistry) Bump(ctx context.Context, domain string) int {
	next := r.Version(ctx, domain) + 1
	r.observe(domain, next)
	r.client.Set(ctx, VersionKey(domain), strconv.Itoa(next), 0)
	return next
}

// remote returns the stored version, or 0 when it is unset, unparsable or
// unavailable.
func (r *VersionRegistry) remote(ctx context.Context, domain string) int {
	raw, ok := r.client.Get(ctx, VersionKey(domain))
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0
	}
	return v
}

func (r *VersionRegistry) observe(domain string, v int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v < r.floor[domain] {
		v = r.floor[domain]
	}
	if v < 1 {
		v = 1
	}
	r.floor[domain] = v
	return v
}
