// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package services

import (
	"context"
)

// TelemetryRunner is satisfied by *telemetry.Source.
type TelemetryRunner interface {
	RunWithContext(ctx context.Context) error
}

// TelemetryService runs the archive polling loop under supervision. A
// restarted source keeps its history and last accepted timestamps, so
// polling resumes where it stopped.
type TelemetryService struct {
	source TelemetryRunner
	name   string
}

// NewTelemetryService creates a polling loop service wrapper.
func NewTelemetryService(source TelemetryRunner) *TelemetryService {
	return &TelemetryService{
		source: source,
		name:   "telemetry-source",
	}
}

// Serve implements suture.Service.
func (s *TelemetryService) Serve(ctx context.Context) error {
	return s.source.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture event logging.
func (s *TelemetryService) String() string {
	return s.name
}
