// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package websocket implements the live delivery endpoints.

Each endpoint owns one Hub. Every accepted connection becomes a Client that
registers its own listener with the telemetry source and keeps a set of
subscribed channel keys, initially empty.

Protocol:

	client -> server   "subscribe <key>"     add key to the set
	client -> server   "unsubscribe <key>"   remove key from the set
	server -> client   {"timestamp":1700000000000,"value":42,"id":"<key>"}

Any other text is ignored. A sample is forwarded only while its key is in the
set. When the connection closes the listener is canceled.

Each client has two goroutines:
  - readPump: reads control commands, handles pongs
  - writePump: writes queued samples, sends pings

Delivery to a client never blocks the telemetry source: samples are queued on
a buffered channel and dropped (and counted) when that client's buffer is full.
*/
package websocket
