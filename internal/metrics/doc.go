// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package metrics provides Prometheus collectors for CTBridge.

All collectors are registered with the default registry through promauto and
exposed by the HTTP router at /metrics.

# Available Metrics

Every collector lives under the ctbridge namespace.

Telemetry source (ctbridge_source_*):
  - ticks_total, tick_duration_seconds
  - fetches_total{result}: data, no_data, error, rejected
  - samples_accepted_total{kind}
  - samples_skipped_total{reason}: malformed, stale, html
  - history_samples, history_evicted_total
  - listeners, listener_panics_total

Archive (ctbridge_upstream_*):
  - request_duration_seconds{operation}, request_errors_total{operation}
  - discovered_channels

HTTP API (ctbridge_api_*):
  - requests_total, request_duration_seconds, active_requests,
    rate_limit_hits_total

WebSocket (ctbridge_websocket_*):
  - connections{endpoint}, messages_sent_total, messages_received_total,
    messages_dropped_total, errors_total{error_type}

Circuit breaker (ctbridge_breaker_*):
  - state (0=closed, 1=half-open, 2=open), requests_total,
    consecutive_failures, state_transitions_total

Process: ctbridge_build_info, ctbridge_uptime_seconds

# Example PromQL

	sum by (kind) (rate(ctbridge_source_samples_accepted_total[1m]))

	histogram_quantile(0.95, rate(ctbridge_upstream_request_duration_seconds_bucket[5m]))

# Thread Safety

All recording functions are safe for concurrent use.
*/
package metrics
