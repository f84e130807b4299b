// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package main is the entry point for the CTBridge server.
//
// CTBridge polls a CloudTurbine archive served over HTTP and re-publishes
// its channels to Open MCT: live samples over WebSocket and historical
// samples over a REST endpoint.
//
// # Startup
//
// The server initializes components in this order:
//
//  1. Configuration: defaults, config.yaml (or CONFIG_PATH), environment
//  2. Logging: zerolog global logger
//  3. Channels: the static discovery.channels list, or a crawl of the
//     archive's directory listings starting at discovery.root
//  4. Archive client, wrapped in a circuit breaker when enabled
//  5. Telemetry source: per-channel state and the polling loop
//  6. Live hubs: /realtime on the main port and / on realtime_port
//  7. HTTP servers and the supervisor tree
//
// A crawl that finds no channels is fatal when discovery.required is true.
// Otherwise the bridge starts with only the comms.sent counter.
//
// # Endpoints
//
//	GET /telemetry/{keys}?start=&end=   history query (keys comma-separated)
//	GET /telemetry/ct_chan_metadata     channel dictionary
//	GET /dictionary                     channel dictionary
//	GET /realtime                       live WebSocket
//	GET /health, /health/live, /health/ready
//	GET /metrics                        Prometheus
//
// # Example
//
//	export CT_BASE_URL=http://ctweb:8000
//	export HTTP_PORT=8091
//	export REALTIME_PORT=8092
//	./ctbridge
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the
// polling loop, closes every live connection with a normal closure frame and
// shuts the HTTP listeners down within supervisor.shutdown_timeout.
package main
