// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package logging provides the zerolog-based structured logger shared by every
// CTBridge component.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("channel", key).Int("accepted", n).Msg("samples posted")
//	logging.Warn().Err(err).Str("channel", key).Msg("upstream fetch failed")
//
// # Configuration
//
// Environment Variables (mapped through internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Context-Aware Logging
//
// HTTP handlers receive request and correlation IDs from the router
// middleware; logging.Ctx(ctx) attaches them to every event.
//
// # slog Adapter
//
// The suture supervisor reports through log/slog. NewSlogLogger returns an
// *slog.Logger that writes through the zerolog backend so supervisor events
// share the same format and level as the rest of the process.
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","app":"ctbridge","channels":12,"time":"2026-01-03T10:30:00Z","message":"Telemetry source started"}
//
// Console Format (Development):
//
//	10:30:00 INF Telemetry source started app=ctbridge channels=12
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// guarded by a sync.RWMutex so Init may be called again at runtime.
package logging
