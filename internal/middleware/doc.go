// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package middleware provides the bridge's HTTP middleware.

All middleware use the chi signature func(http.Handler) http.Handler:

  - RequestID: X-Request-ID propagation plus request and correlation IDs in
    the logging context
  - PrometheusMetrics: request counts, durations and in-flight gauge labelled
    by chi route pattern
  - SlowRequests: warns about requests slower than a threshold

Websocket upgrades pass through PrometheusMetrics and SlowRequests untouched;
their lifetime is the connection's, and the hub reports them instead.

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SlowRequests(time.Second))
*/
package middleware
