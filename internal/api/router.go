// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ctbridge/internal/middleware"
)

// LiveEndpoint accepts live delivery connections.
type LiveEndpoint interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Router wires handlers and middleware into chi routers.
type Router struct {
	handler       *Handler
	live          LiveEndpoint
	chiMiddleware *ChiMiddleware
	slowThreshold time.Duration
}

// NewRouter creates a Router. live may be nil to omit /realtime.
func NewRouter(handler *Handler, live LiveEndpoint, mw *ChiMiddleware, slowThreshold time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		live:          live,
		chiMiddleware: mw,
		slowThreshold: slowThreshold,
	}
}

// SetupChi builds the main HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SlowRequests(router.slowThreshold))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("telemetry"))
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Get(telemetryPrefix+"*", router.handler.Telemetry)
		r.Get("/dictionary", router.handler.Dictionary)
	})

	if router.live != nil {
		r.Get("/realtime", router.live.ServeWS)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// SetupRealtime builds the handler for the dedicated live delivery port,
// which accepts connections on any path.
func SetupRealtime(live LiveEndpoint) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/*", live.ServeWS)

	return r
}
