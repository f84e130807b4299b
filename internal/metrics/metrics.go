// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ctbridge"

// Fetch outcomes recorded by RecordFetch.
const (
	FetchResultData     = "data"
	FetchResultNoData   = "no_data"
	FetchResultError    = "error"
	FetchResultRejected = "rejected"
)

func counter(subsystem, name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
}

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func gauge(subsystem, name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
}

func gaugeVec(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

// Telemetry source.
var (
	TicksTotal = counter("source", "ticks_total",
		"Completed polling cycles.")

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of one polling cycle across all channels.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	FetchesTotal = counterVec("source", "fetches_total",
		"Per-channel archive fetches by outcome.", "result")

	SamplesAccepted = counterVec("source", "samples_accepted_total",
		"Samples appended to history.", "kind")

	// reason: malformed, stale, html
	SamplesSkipped = counterVec("source", "samples_skipped_total",
		"Upstream lines dropped by the normalizer.", "reason")

	HistorySamples = gauge("source", "history_samples",
		"Samples retained across all channels.")

	HistoryEvicted = counter("source", "history_evicted_total",
		"Samples evicted by the retention cap.")

	Listeners = gauge("source", "listeners",
		"Registered notify listeners.")

	ListenerPanics = counter("source", "listener_panics_total",
		"Recovered panics in notify listeners.")
)

// CloudTurbine archive.
var (
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of archive requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	UpstreamRequestErrors = counterVec("upstream", "request_errors_total",
		"Failed archive requests.", "operation")

	DiscoveryChannels = gauge("upstream", "discovered_channels",
		"Channels found by the last discovery crawl.")
)

// HTTP API.
var (
	APIRequestsTotal = counterVec("api", "requests_total",
		"API requests served.", "method", "endpoint", "status_code")

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})

	APIActiveRequests = gauge("api", "active_requests",
		"API requests in flight.")

	APIRateLimitHits = counterVec("api", "rate_limit_hits_total",
		"Requests rejected by the rate limiter.", "endpoint")
)

// Realtime WebSocket delivery.
var (
	WSConnections = gaugeVec("websocket", "connections",
		"Open WebSocket connections.", "endpoint")

	WSMessagesSent = counter("websocket", "messages_sent_total",
		"Messages written to WebSocket clients.")

	WSMessagesReceived = counter("websocket", "messages_received_total",
		"Command frames read from WebSocket clients.")

	WSMessagesDropped = counter("websocket", "messages_dropped_total",
		"Samples dropped for clients with a full send buffer.")

	WSErrors = counterVec("websocket", "errors_total",
		"WebSocket errors by type.", "error_type")
)

// Archive circuit breaker.
var (
	// 0=closed, 1=half-open, 2=open
	CircuitBreakerState = gaugeVec("breaker", "state",
		"Circuit breaker state.", "name")

	// result: success, failure, rejected
	CircuitBreakerRequests = counterVec("breaker", "requests_total",
		"Requests through the circuit breaker.", "name", "result")

	CircuitBreakerConsecutiveFailures = gaugeVec("breaker", "consecutive_failures",
		"Current run of consecutive failures.", "name")

	CircuitBreakerTransitions = counterVec("breaker", "state_transitions_total",
		"Circuit breaker state transitions.", "name", "from_state", "to_state")
)

// Process.
var (
	AppInfo = gaugeVec("", "build_info",
		"Constant 1, labelled with the build version.", "version", "go_version")

	AppUptime = gauge("", "uptime_seconds",
		"Seconds since the process started.")
)

// RecordTick records one completed polling cycle.
func RecordTick(d time.Duration) {
	TicksTotal.Inc()
	TickDuration.Observe(d.Seconds())
}

// RecordFetch records the outcome of one per-channel fetch.
func RecordFetch(result string) {
	FetchesTotal.WithLabelValues(result).Inc()
}

// RecordUpstreamRequest records an archive request and counts it as failed
// when err is non-nil.
func RecordUpstreamRequest(operation string, d time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		UpstreamRequestErrors.WithLabelValues(operation).Inc()
	}
}

func RecordAPIRequest(method, endpoint, statusCode string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
