// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package models

// Dictionary is the channel metadata document returned for the metadata
// sentinel key. Open MCT uses it to register telemetry object types.
type Dictionary struct {
	Name         string        `json:"name"`
	Key          string        `json:"key"`
	Measurements []Measurement `json:"measurements"`
}

// Measurement describes one channel in the dictionary.
type Measurement struct {
	Name   string            `json:"name"`
	Key    string            `json:"key"`
	Values []ValueDescriptor `json:"values"`
}

// ValueDescriptor describes one field of a telemetry datum.
type ValueDescriptor struct {
	Key    string         `json:"key"`
	Name   string         `json:"name"`
	Source string         `json:"source,omitempty"`
	Format string         `json:"format"`
	Hints  map[string]int `json:"hints"`
}
