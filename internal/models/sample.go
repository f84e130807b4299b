// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package models

// Sample is one accepted observation on a channel.
type Sample struct {
	// Timestamp in milliseconds since the Unix epoch.
	Timestamp float64 `json:"timestamp"`
	Value     any     `json:"value"`
	ID        string  `json:"id"`
}
