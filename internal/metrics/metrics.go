// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package metrics holds the Prometheus instruments exported by Eventlens.
//
// Instruments are registered on the default registry through promauto and
// served on /metrics by the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Circuit breaker state values reported by CircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

var (
	// Backend Metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventlens_query_duration_seconds",
			Help:    "Duration of analytics backend queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// MaskedFailures counts execution errors converted to empty results.
	MaskedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlens_masked_failures_total",
			Help: "Total number of backend execution failures returned to callers as empty results",
		},
		[]string{"backend", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventlens_circuit_breaker_state",
			Help: "Circuit breaker state per backend (0=closed, 1=half-open, 2=open)",
		},
		[]string{"backend"},
	)

	// Result Cache Metrics
	ResultCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlens_result_cache_hits_total",
			Help: "Total number of metric results served from the result cache",
		},
	)

	ResultCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlens_result_cache_misses_total",
			Help: "Total number of metric results not found in the result cache",
		},
	)

	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlens_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventlens_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventlens_app_info",
			Help: "Application version and storage provider",
		},
		[]string{"version", "provider"},
	)
)

// ObserveQuery records the latency of one backend query, successful or not.
func ObserveQuery(backend, operation string, duration time.Duration) {
	QueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordMaskedFailure increments the masked failure counter without a latency sample.
func RecordMaskedFailure(backend, operation string) {
	MaskedFailures.WithLabelValues(backend, operation).Inc()
}

// SetCircuitBreakerState publishes the breaker state for a backend.
func SetCircuitBreakerState(backend string, state int) {
	CircuitBreakerState.WithLabelValues(backend).Set(float64(state))
}

// RecordCacheLookup records a result cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		ResultCacheHits.Inc()
	} else {
		ResultCacheMisses.Inc()
	}
}

// RecordHTTPRequest records an API request metric
func RecordHTTPRequest(route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
