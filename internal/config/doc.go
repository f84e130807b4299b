// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package config loads the bridge configuration.

Sources are layered with koanf, later layers winning:

 1. Defaults from defaultConfig
 2. YAML file: $CONFIG_PATH, else config.yaml, config.yml,
    /etc/ctbridge/config.yaml, /etc/ctbridge/config.yml
 3. Environment variables listed in envMappings

Only mapped environment variables are read. List settings (CORS_ORIGINS,
DISCOVERY_SKIP, CT_CHANNELS) accept comma separated values.

Example config.yaml:

	upstream:
	  base_url: http://ctweb.local:8000
	  archive_path: /CT
	telemetry:
	  poll_interval: 250ms
	  history_max_samples: 100000
	discovery:
	  root: /CT/
	  skip: ["_Log/"]
	server:
	  port: 8091
	  realtime_port: 8092

Validate runs struct tag rules through the validation package and then the
cross-field checks in validate.go.
*/
package config
