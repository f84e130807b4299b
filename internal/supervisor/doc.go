// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package supervisor runs the bridge's long-lived services under a suture v4
supervisor tree.

The tree has three layers so that a failure in one does not take down the
others:

	RootSupervisor ("ctbridge")
	├── IngestSupervisor ("ingest-layer")
	│   └── TelemetryService (archive polling loop)
	├── DeliverySupervisor ("delivery-layer")
	│   ├── WebSocketHubService ("websocket-hub:realtime")
	│   └── WebSocketHubService ("websocket-hub:live", when enabled)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService ("http-server:main")
	    └── HTTPServerService ("http-server:live", when enabled)

A hub that crashes is restarted without interrupting history queries, and a
listener that fails to bind is retried with backoff while polling continues.

Supervisor events (start, stop, panic, backoff) are logged through sutureslog
into the zerolog stream via logging.NewSlogLogger.

# Usage

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultConfig())
	tree.Add(supervisor.Ingest, services.NewTelemetryService(source))
	tree.Add(supervisor.Delivery, services.NewWebSocketHubService(hub))
	tree.Add(supervisor.API, services.NewHTTPServerService("main", server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
