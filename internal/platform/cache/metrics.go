package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hms_cache_lookups_total",
		Help: "Cache lookups by engine, tier and result.",
	}, []string{"engine", "tier", "result"})

	remoteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hms_cache_remote_failures_total",
		Help: "Remote cache calls that failed after retries.",
	}, []string{"op"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hms_cache_breaker_state",
		Help: "Remote cache breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})

	storeFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hms_store_fetches_total",
		Help: "Record store queries issued after a cache miss.",
	}, []string{"engine", "collection"})
)

// Tier names used in metrics labels.
const (
	TierMemory = "memory"
	TierRemote = "remote"
)

// RecordLookup counts a cache lookup for engine ("page", "search") on tier.
func RecordLookup(engine, tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	lookups.WithLabelValues(engine, tier, result).Inc()
}

// RecordStoreFetch counts a store query made on a full cache miss.
func RecordStoreFetch(engine, collection string) {
	storeFetches.WithLabelValues(engine, collection).Inc()
}
