// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ctbridge/config.yaml",
	"/etc/ctbridge/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:        "http://localhost:8000",
			ArchivePath:    "/CT",
			WindowSeconds:  100000000,
			RequestTimeout: 10 * time.Second,
			StartEpsilon:   0.001,

			BreakerEnabled:      true,
			BreakerFailureRatio: 0.6,
			BreakerMinRequests:  10,
			BreakerTimeout:      30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			PollInterval:         250 * time.Millisecond,
			MaxConcurrentFetches: 16,
			HistoryMaxSamples:    100000,
		},
		Discovery: DiscoveryConfig{
			Root:              "/CT/",
			MaxDepth:          8,
			RequestsPerSecond: 20,
			Skip:              []string{"_Log/"},
			Channels:          []string{},
			Required:          true,
		},
		Server: ServerConfig{
			Host:                 "0.0.0.0",
			Port:                 8091,
			RealtimePort:         8092,
			Timeout:              30 * time.Second,
			SlowRequestThreshold: time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads defaults, the optional config file and environment
// overrides, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"discovery.skip",
	"discovery.channels",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config keys.
var envMappings = map[string]string{
	"ct_base_url":                  "upstream.base_url",
	"ct_archive_path":              "upstream.archive_path",
	"ct_window_seconds":            "upstream.window_seconds",
	"ct_request_timeout":           "upstream.request_timeout",
	"ct_start_epsilon":             "upstream.start_epsilon",
	"ct_breaker_enabled":           "upstream.breaker_enabled",
	"ct_breaker_failure_ratio":     "upstream.breaker_failure_ratio",
	"ct_breaker_min_requests":      "upstream.breaker_min_requests",
	"ct_breaker_timeout":           "upstream.breaker_timeout",
	"poll_interval":                "telemetry.poll_interval",
	"max_concurrent_fetches":       "telemetry.max_concurrent_fetches",
	"history_max_samples":          "telemetry.history_max_samples",
	"discovery_root":               "discovery.root",
	"discovery_max_depth":          "discovery.max_depth",
	"discovery_rps":                "discovery.requests_per_second",
	"discovery_skip":               "discovery.skip",
	"discovery_required":           "discovery.required",
	"ct_channels":                  "discovery.channels",
	"http_host":                    "server.host",
	"http_port":                    "server.port",
	"realtime_port":                "server.realtime_port",
	"http_timeout":                 "server.timeout",
	"slow_request_threshold":       "server.slow_request_threshold",
	"cors_origins":                 "security.cors_origins",
	"rate_limit_requests":          "security.rate_limit_reqs",
	"rate_limit_window":            "security.rate_limit_window",
	"disable_rate_limit":           "security.rate_limit_disabled",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc returns the config key for an environment variable, or ""
// to ignore it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
