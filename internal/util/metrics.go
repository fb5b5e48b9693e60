package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdjustmentsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjustments_resolved_total",
		Help: "Total number of adjustment resolutions",
	}, []string{"table"})

	AdjustmentResolutionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjustment_resolution_failures_total",
		Help: "Total number of rule fetches that failed open to a zeroed adjustment",
	}, []string{"table"})

	RuleCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rule_cache_hits_total",
		Help: "Total number of rule list cache hits",
	}, []string{"table"})

	RuleCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rule_cache_misses_total",
		Help: "Total number of rule list cache misses",
	}, []string{"table"})

	RulesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjustment_rules_created_total",
		Help: "Total number of adjustment rules created",
	}, []string{"table", "scope"})

	RulesDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjustment_rules_deleted_total",
		Help: "Total number of adjustment rules deleted",
	}, []string{"table"})

	FallbackServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fallback_rows_served_total",
		Help: "Total number of listings served from the static fallback snapshot",
	}, []string{"table", "reason"})

	ListingRowsReturned = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_rows_returned",
		Help:    "Rows returned per listing request",
		Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
	}, []string{"table"})

	StoreReadLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_read_latency_seconds",
		Help:    "Latency of record store reads including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	StoreRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_retries_total",
		Help: "Total number of retried record store calls",
	})

	IdentityVerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "identity_verify_failures_total",
		Help: "Total number of rejected bearer tokens",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
