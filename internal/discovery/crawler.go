// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package discovery finds archive channels at startup by walking CTweb's
// directory listings breadth first.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
)

// ErrNoChannels is returned when a crawl completes without finding a channel.
var ErrNoChannels = errors.New("discovery: archive contains no channels")

// Lister fetches a directory listing page.
type Lister interface {
	List(ctx context.Context, path string) ([]byte, error)
}

// Config controls the crawl.
type Config struct {
	// Root is the listing path to start from, e.g. "/CT/".
	Root string

	// MaxDepth bounds how many directory levels below Root are followed.
	MaxDepth int

	// RequestsPerSecond limits listing requests. Zero disables limiting.
	RequestsPerSecond float64

	// Skip lists anchor texts that are never followed, e.g. "_Log/".
	Skip []string
}

// Crawler walks archive listings.
type Crawler struct {
	lister  Lister
	cfg     Config
	limiter *rate.Limiter
	skip    map[string]struct{}
}

// NewCrawler creates a crawler reading listings through lister.
func NewCrawler(lister Lister, cfg Config) *Crawler {
	if cfg.Root == "" {
		cfg.Root = "/CT/"
	}
	if !strings.HasSuffix(cfg.Root, "/") {
		cfg.Root += "/"
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	skip := make(map[string]struct{}, len(cfg.Skip))
	for _, s := range cfg.Skip {
		skip[s] = struct{}{}
	}

	return &Crawler{lister: lister, cfg: cfg, limiter: limiter, skip: skip}
}

type pending struct {
	path  string
	depth int
}

// Crawl returns every channel path under Root, relative to Root, in the order
// found. A listing that cannot be fetched is logged and skipped unless it is
// the root itself.
func (c *Crawler) Crawl(ctx context.Context) ([]string, error) {
	var channels []string
	seen := map[string]struct{}{c.cfg.Root: {}}
	queue := []pending{{path: c.cfg.Root}}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.lister.List(ctx, next.path)
		if err != nil {
			if next.depth == 0 {
				return nil, fmt.Errorf("list archive root: %w", err)
			}
			logging.Warn().Err(err).Str("path", next.path).Msg("Skipping unreadable archive directory")
			continue
		}

		entries, err := ParseListing(body)
		if err != nil {
			logging.Warn().Err(err).Str("path", next.path).Msg("Skipping unparsable archive listing")
			continue
		}

		for _, entry := range entries {
			if _, ok := c.skip[entry]; ok {
				continue
			}

			full := next.path + strings.TrimPrefix(entry, "/")
			if strings.HasSuffix(entry, "/") {
				if next.depth+1 > c.cfg.MaxDepth {
					logging.Warn().Str("path", full).Int("max_depth", c.cfg.MaxDepth).Msg("Archive directory too deep, not following")
					continue
				}
				if _, dup := seen[full]; !dup {
					seen[full] = struct{}{}
					queue = append(queue, pending{path: full, depth: next.depth + 1})
				}
				continue
			}

			channels = append(channels, strings.TrimPrefix(full, c.cfg.Root))
		}
	}

	metrics.DiscoveryChannels.Set(float64(len(channels)))
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	logging.Info().Int("channels", len(channels)).Msg("Archive channel discovery complete")
	return channels, nil
}

// ParseListing returns the anchor texts of a directory listing page, omitting
// the first anchor, which is the parent-directory link.
func ParseListing(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var anchors []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			anchors = append(anchors, strings.TrimSpace(textContent(n)))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(anchors) == 0 {
		return nil, nil
	}

	entries := make([]string, 0, len(anchors)-1)
	for _, a := range anchors[1:] {
		if a != "" {
			entries = append(entries, a)
		}
	}
	return entries, nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
