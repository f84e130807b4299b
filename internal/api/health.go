// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
)

// HealthLive always reports alive while the process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once the telemetry source has completed a tick and
// 503 before that.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := h.status()

	statusCode := http.StatusOK
	if !status.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).Envelope(statusCode, status.Ready, status)
}

// Health returns the full status document with a 200 regardless of readiness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.status())
}

func (h *Handler) status() models.HealthStatus {
	ready := h.source.Ready()

	status := models.HealthStatus{
		Status:      "not_ready",
		Version:     h.version,
		Ready:       ready,
		Channels:    len(h.source.Channels()),
		LiveClients: h.liveClients(),
		Uptime:      time.Since(h.startTime).Seconds(),
	}
	if ready {
		status.Status = "ready"
	}
	metrics.AppUptime.Set(status.Uptime)
	if last := h.source.LastTick(); !last.IsZero() {
		status.LastTickTime = &last
	}
	return status
}
