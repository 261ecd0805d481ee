// Package metrics holds the Prometheus collectors for the service. Collectors are
// registered on the default registry at init and exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_cache_requests_total",
			Help: "Cache lookups by cache name and result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whatdatplane_cache_entries",
			Help: "Entries currently held per cache, including expired ones not yet swept",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_cache_evictions_total",
			Help: "Expired entries removed, lazily or by the sweeper",
		},
		[]string{"cache"},
	)

	// Rate Limiter Metrics
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_ratelimit_decisions_total",
			Help: "Rate limiter decisions by limiter and decision (allowed, limited)",
		},
		[]string{"limiter", "decision"},
	)

	// Upstream Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_upstream_requests_total",
			Help: "Outbound provider requests by provider and outcome",
		},
		[]string{"provider", "outcome"}, // "success", "not_found", "error", "rejected"
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatdatplane_upstream_request_duration_seconds",
			Help:    "Duration of outbound provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whatdatplane_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// Enrichment Metrics
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_enrichment_outcomes_total",
			Help: "Enrichment sub-lookup outcomes by lookup and status",
		},
		[]string{"lookup", "status"},
	)

	// API Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatdatplane_http_requests_total",
			Help: "HTTP requests served by route pattern and status code",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatdatplane_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
