// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package config

import "time"

// Config is the complete bridge configuration.
type Config struct {
	Upstream   UpstreamConfig   `koanf:"upstream"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Discovery  DiscoveryConfig  `koanf:"discovery"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// UpstreamConfig locates the CloudTurbine web server and tunes requests to it.
type UpstreamConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required"`
	ArchivePath    string        `koanf:"archive_path" validate:"required,startswith=/"`
	WindowSeconds  int64         `koanf:"window_seconds" validate:"gt=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	StartEpsilon   float64       `koanf:"start_epsilon" validate:"gt=0,lt=1"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"gte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// TelemetryConfig tunes the polling loop and history retention.
type TelemetryConfig struct {
	PollInterval         time.Duration `koanf:"poll_interval" validate:"gt=0"`
	MaxConcurrentFetches int           `koanf:"max_concurrent_fetches" validate:"min=1,max=1024"`
	HistoryMaxSamples    int           `koanf:"history_max_samples" validate:"min=0"` // 0 = unbounded
}

// DiscoveryConfig controls how the channel list is obtained at startup.
// A non-empty Channels list skips the crawl.
type DiscoveryConfig struct {
	Root              string   `koanf:"root" validate:"ctpath"`
	MaxDepth          int      `koanf:"max_depth" validate:"min=1,max=64"`
	RequestsPerSecond float64  `koanf:"requests_per_second" validate:"min=0"`
	Skip              []string `koanf:"skip"`
	Channels          []string `koanf:"channels" validate:"dive,channelkey"`
	Required          bool     `koanf:"required"`
}

// ServerConfig holds HTTP listener settings. RealtimePort 0 disables the
// dedicated live delivery listener.
type ServerConfig struct {
	Host                 string        `koanf:"host"`
	Port                 int           `koanf:"port" validate:"min=1,max=65535"`
	RealtimePort         int           `koanf:"realtime_port" validate:"min=0,max=65535"`
	Timeout              time.Duration `koanf:"timeout" validate:"gt=0"`
	SlowRequestThreshold time.Duration `koanf:"slow_request_threshold" validate:"gte=0"`
}

// SecurityConfig holds cross-origin and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins" validate:"min=1"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig mirrors supervisor.Config.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gte=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gte=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gte=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// Addr returns the main listener address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// RealtimeAddr returns the dedicated live delivery address, or "" when
// disabled.
func (s ServerConfig) RealtimeAddr() string {
	if s.RealtimePort == 0 {
		return ""
	}
	return joinHostPort(s.Host, s.RealtimePort)
}
