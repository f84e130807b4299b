// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package models

// Kind is the value type of a channel.
type Kind string

const (
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindString  Kind = "string"
	KindImage   Kind = "image"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindFloat, KindString, KindImage:
		return true
	}
	return false
}

// ZeroValue returns the initial current value for a channel of this kind.
func (k Kind) ZeroValue() any {
	switch k {
	case KindInteger:
		return int64(0)
	case KindFloat:
		return float64(0)
	default:
		return ""
	}
}

// Channel describes one telemetry stream. Key is the slash-delimited archive
// path relative to the archive root (e.g. "rover/imu/accel.f32").
type Channel struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}
