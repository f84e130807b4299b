// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ctbridge/internal/api"
	"github.com/tomtom215/ctbridge/internal/config"
	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/normalize"
	"github.com/tomtom215/ctbridge/internal/registry"
	"github.com/tomtom215/ctbridge/internal/supervisor"
	"github.com/tomtom215/ctbridge/internal/supervisor/services"
	"github.com/tomtom215/ctbridge/internal/telemetry"
	"github.com/tomtom215/ctbridge/internal/upstream"
	ws "github.com/tomtom215/ctbridge/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// discoveryTimeout bounds the startup crawl.
const discoveryTimeout = 2 * time.Minute

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("version", version).
		Str("base_url", cfg.Upstream.BaseURL).
		Str("archive_path", cfg.Upstream.ArchivePath).
		Dur("poll_interval", cfg.Telemetry.PollInterval).
		Msg("Starting CTBridge")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := upstream.NewClient(upstream.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		ArchivePath:   cfg.Upstream.ArchivePath,
		WindowSeconds: cfg.Upstream.WindowSeconds,
		Timeout:       cfg.Upstream.RequestTimeout,
	})

	var archive upstream.Archive = client
	if cfg.Upstream.BreakerEnabled {
		archive = upstream.NewBreakerClient(client, upstream.BreakerConfig{
			FailureRatio: cfg.Upstream.BreakerFailureRatio,
			MinRequests:  cfg.Upstream.BreakerMinRequests,
			Timeout:      cfg.Upstream.BreakerTimeout,
		})
	}

	discoveryCtx, discoveryCancel := context.WithTimeout(ctx, discoveryTimeout)
	paths, err := resolveChannels(discoveryCtx, &cfg.Discovery, archive)
	discoveryCancel()
	if err != nil {
		logging.Fatal().Err(err).Str("root", cfg.Discovery.Root).Msg("Failed to resolve channels")
	}

	channels := registry.Build(paths)
	logging.Info().Int("channels", len(channels)).Msg("Channel registry built")

	source := telemetry.NewSource(telemetry.Config{
		PollInterval:         cfg.Telemetry.PollInterval,
		MaxConcurrentFetches: cfg.Telemetry.MaxConcurrentFetches,
		HistoryMaxSamples:    cfg.Telemetry.HistoryMaxSamples,
		StartEpsilon:         cfg.Upstream.StartEpsilon,
	}, archive, normalize.New(archive.ImageURL), channels)

	realtimeHub := ws.NewHub("realtime", source, cfg.Security.CORSOrigins)
	hubs := []api.ClientCounter{realtimeHub}

	var liveHub *ws.Hub
	if cfg.Server.RealtimeAddr() != "" {
		liveHub = ws.NewHub("live", source, cfg.Security.CORSOrigins)
		hubs = append(hubs, liveHub)
	}

	handler := api.NewHandler(source, version, hubs...)
	middleware := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		CORSAllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(handler, realtimeHub, middleware, cfg.Server.SlowRequestThreshold)

	// WriteTimeout is left unset; it would cut off hijacked WebSocket connections.
	mainServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.Config{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

	tree.Add(supervisor.Ingest, services.NewTelemetryService(source))
	tree.Add(supervisor.Delivery, services.NewWebSocketHubService(realtimeHub))
	tree.Add(supervisor.API, services.NewHTTPServerService("main", mainServer, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", mainServer.Addr).Msg("HTTP server configured")

	if liveHub != nil {
		liveServer := &http.Server{
			Addr:              cfg.Server.RealtimeAddr(),
			Handler:           api.SetupRealtime(liveHub),
			ReadHeaderTimeout: 10 * time.Second,
		}
		tree.Add(supervisor.Delivery, services.NewWebSocketHubService(liveHub))
		tree.Add(supervisor.API, services.NewHTTPServerService("live", liveServer, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", liveServer.Addr).Msg("Live delivery server configured")
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("CTBridge stopped")
}
