// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package models

import "time"

// HealthStatus is returned by the readiness endpoint.
type HealthStatus struct {
	Status       string     `json:"status"`
	Version      string     `json:"version"`
	Ready        bool       `json:"ready"`
	Channels     int        `json:"channels"`
	LiveClients  int        `json:"live_clients"`
	LastTickTime *time.Time `json:"last_tick_time,omitempty"`
	Uptime       float64    `json:"uptime_seconds"`
}
