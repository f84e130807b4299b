// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package models defines the data structures shared across CTBridge.

Key Components:

  - Kind: value type of a channel (integer, float, string, image)
  - Channel: immutable channel description built once by the registry
  - Sample: one accepted observation, serialized as {timestamp, value, id}
  - Dictionary: the channel metadata document served to Open MCT
  - HealthStatus: readiness payload for the health endpoints

Wire Format:

Samples are delivered identically over the history endpoint and the live
websocket endpoints:

	{"timestamp": 1700000000000, "value": 42, "id": "src/c0.i32"}

Timestamps are milliseconds since the Unix epoch as floating point numbers.
Image channels carry a fetch URL as their value, never inline image bytes.
*/
package models
