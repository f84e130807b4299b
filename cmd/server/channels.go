// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/ctbridge/internal/config"
	"github.com/tomtom215/ctbridge/internal/discovery"
	"github.com/tomtom215/ctbridge/internal/logging"
)

// resolveChannels returns the channel paths the bridge serves. A static
// list wins over discovery.
func resolveChannels(ctx context.Context, cfg *config.DiscoveryConfig, lister discovery.Lister) ([]string, error) {
	if len(cfg.Channels) > 0 {
		logging.Info().Int("channels", len(cfg.Channels)).Msg("Using static channel list")
		return cfg.Channels, nil
	}

	crawler := discovery.NewCrawler(lister, discovery.Config{
		Root:              cfg.Root,
		MaxDepth:          cfg.MaxDepth,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Skip:              cfg.Skip,
	})

	paths, err := crawler.Crawl(ctx)
	switch {
	case err == nil:
		return paths, nil
	case errors.Is(err, discovery.ErrNoChannels) && !cfg.Required:
		logging.Warn().Str("root", cfg.Root).Msg("No channels discovered, serving comms.sent only")
		return nil, nil
	default:
		return nil, fmt.Errorf("channel discovery: %w", err)
	}
}
