// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Resilience metrics track the behavior of the pool, cache and breakers.
var (
	// CacheHitsTotal counts cache hits per named cache
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	// CacheMissesTotal counts cache misses per named cache
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// CacheEvictionsTotal counts entries removed by sweeps and capacity bounds
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_cache_evictions_total",
			Help: "Total number of cache entries evicted",
		},
		[]string{"cache"},
	)

	// PoolActiveResources tracks live resources per named pool
	PoolActiveResources = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resilience_pool_active_resources",
			Help: "Number of live resources in the pool, idle or checked out",
		},
		[]string{"pool"},
	)

	// PoolIdleResources tracks idle resources per named pool
	PoolIdleResources = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resilience_pool_idle_resources",
			Help: "Number of idle resources waiting in the pool",
		},
		[]string{"pool"},
	)

	// RetryAttemptsTotal counts retry executor attempts by operation and outcome
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_retry_attempts_total",
			Help: "Total number of retry executor attempts",
		},
		[]string{"operation", "outcome"},
	)

	// BreakerState reports circuit breaker state (0 closed, 1 half-open, 2 open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resilience_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"circuit"},
	)

	// ScoreRequestsTotal counts AI scoring calls by provider and outcome
	ScoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of AI scoring requests",
		},
		[]string{"provider", "outcome"},
	)

	// ScoreDuration measures AI scoring call duration in seconds
	ScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "AI scoring request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)
)

// CacheRecorder adapts the cache metrics to the resilience cache's Recorder
// interface for one named cache.
type CacheRecorder struct {
	name string
}

// NewCacheRecorder creates a recorder publishing under the given cache name.
func NewCacheRecorder(name string) *CacheRecorder {
	return &CacheRecorder{name: name}
}

// Hit increments the hit counter.
func (r *CacheRecorder) Hit() {
	CacheHitsTotal.WithLabelValues(r.name).Inc()
}

// Miss increments the miss counter.
func (r *CacheRecorder) Miss() {
	CacheMissesTotal.WithLabelValues(r.name).Inc()
}

// Evicted adds n to the eviction counter.
func (r *CacheRecorder) Evicted(n int) {
	CacheEvictionsTotal.WithLabelValues(r.name).Add(float64(n))
}

// RetryRecorder adapts the retry attempt counter to the retry executor's
// Recorder interface.
type RetryRecorder struct{}

// NewRetryRecorder creates a recorder publishing retry attempt outcomes.
func NewRetryRecorder() RetryRecorder {
	return RetryRecorder{}
}

// RecordAttempt increments the attempt counter for the operation.
func (RetryRecorder) RecordAttempt(operation, outcome string) {
	RetryAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

// SetBreakerState publishes a breaker's state as a gauge value.
func SetBreakerState(circuit string, state float64) {
	BreakerState.WithLabelValues(circuit).Set(state)
}

// SetPoolStats publishes a pool's accounting snapshot.
func SetPoolStats(name string, active, idle int) {
	PoolActiveResources.WithLabelValues(name).Set(float64(active))
	PoolIdleResources.WithLabelValues(name).Set(float64(idle))
}
