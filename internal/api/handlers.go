// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package api

import (
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/registry"
)

// TelemetrySource is the read side of the telemetry source.
type TelemetrySource interface {
	Channels() []models.Channel
	Query(keys []string, start, end float64) []models.Sample
	Ready() bool
	LastTick() time.Time
}

// ClientCounter reports live connections for health output.
type ClientCounter interface {
	ClientCount() int
}

// Handler serves the telemetry and health endpoints.
type Handler struct {
	source     TelemetrySource
	dictionary models.Dictionary
	hubs       []ClientCounter
	version    string
	startTime  time.Time
}

// NewHandler creates a Handler. The dictionary is built once from the
// source's channel list, which does not change after startup.
func NewHandler(source TelemetrySource, version string, hubs ...ClientCounter) *Handler {
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	return &Handler{
		source:     source,
		dictionary: registry.Dictionary(source.Channels()),
		hubs:       hubs,
		version:    version,
		startTime:  time.Now(),
	}
}

const telemetryPrefix = "/telemetry/"

// escapedKeys returns the still-escaped key list after /telemetry/. chi's
// wildcard is decoded or not depending on whether r.URL.RawPath is set, so
// it cannot be unescaped safely a second time.
func escapedKeys(r *http.Request) string {
	if rest, ok := strings.CutPrefix(r.URL.EscapedPath(), telemetryPrefix); ok {
		return rest
	}
	return url.PathEscape(chi.URLParam(r, "*"))
}

// Telemetry serves GET /telemetry/{keys}. The metadata key returns the
// channel dictionary; anything else is a history query.
func (h *Handler) Telemetry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	raw := escapedKeys(r)

	if raw == registry.MetadataKey {
		rw.Raw(http.StatusOK, h.dictionary)
		return
	}

	req, apiErr := parseHistoryRequest(r, raw)
	if apiErr != nil {
		logging.Ctx(r.Context()).Debug().
			Str("keys", raw).
			Str("code", apiErr.Code).
			Str("reason", apiErr.Message).
			Msg("Rejected history query")
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	samples := h.source.Query(req.Keys, req.Start, req.End)

	logging.Ctx(r.Context()).Debug().
		Strs("keys", req.Keys).
		Float64("start", req.Start).
		Float64("end", req.End).
		Int("samples", len(samples)).
		Msg("History query served")

	rw.Raw(http.StatusOK, samples)
}

// Dictionary serves the channel dictionary directly.
func (h *Handler) Dictionary(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Raw(http.StatusOK, h.dictionary)
}

func (h *Handler) liveClients() int {
	total := 0
	for _, hub := range h.hubs {
		total += hub.ClientCount()
	}
	return total
}
