// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package api serves the bridge's HTTP surface: historical telemetry, the
channel dictionary, the live delivery upgrade, health probes and metrics.

Routes (main port):

	GET /telemetry/{keys}?start=<ms>&end=<ms>   samples, JSON array
	GET /telemetry/ct_chan_metadata             channel dictionary document
	GET /realtime                               live delivery (websocket)
	GET /health, /health/live, /health/ready    probes
	GET /metrics                                Prometheus

{keys} is one channel key or a comma separated list. Keys are slash paths and
may be sent percent-encoded. start and end are optional exclusive bounds in
milliseconds. Samples are returned in request key order, each channel's
samples in timestamp order. Unknown keys contribute nothing.

Successful telemetry responses are bare JSON so that Open MCT's historical
provider can consume them directly. Errors use the envelope in response.go:

	{"success":false,"error":{"code":"VALIDATION_FAILED","message":"...","request_id":"..."}}

Every response permits cross-origin access.
*/
package api
