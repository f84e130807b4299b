// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package upstream is the HTTP client for the CloudTurbine archive (CTweb).

The archive is consumed through two read-only interfaces:

	GET <base><archive>/<channel>?r=absolute&d=<window>&t=<start>[&f=t]   range fetch
	GET <base><path>                                                      directory listing

A range fetch returns newline-delimited "timestamp,value" records, or bare
timestamps when f=t is requested for image channels. When there is nothing
newer than t the archive answers 404 with an HTML page; Client reports this as
ErrNoNewData, which callers treat as steady state rather than failure.

BreakerClient wraps Client with a sony/gobreaker circuit breaker so that a
dead archive is not hammered four times a second per channel. ErrNoNewData
counts as a success for the breaker.
*/
package upstream
