// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
)

var (
	// ErrNoNewData is returned when the archive has nothing after the requested start time.
	ErrNoNewData = errors.New("upstream: no new data")

	// ErrUnexpectedStatus is returned for any non-200, non-404 archive response.
	ErrUnexpectedStatus = errors.New("upstream: unexpected status")
)

// maxBodyBytes bounds a single archive response.
const maxBodyBytes = 64 << 20

// Archive defines the archive operations used by the telemetry source and
// the discovery crawler. Both Client and BreakerClient implement it.
type Archive interface {
	FetchSince(ctx context.Context, ch models.Channel, startSeconds float64) ([]byte, error)
	List(ctx context.Context, path string) ([]byte, error)
	ImageURL(key string, seconds float64) string
}

var _ Archive = (*Client)(nil)

// Config holds archive connection settings.
type Config struct {
	BaseURL       string
	ArchivePath   string
	WindowSeconds int64
	Timeout       time.Duration
}

// Client provides access to the CloudTurbine archive.
type Client struct {
	baseURL     string
	archivePath string
	window      string
	httpClient  *http.Client
}

// NewClient creates an archive client. Trailing slashes are trimmed from
// BaseURL and ArchivePath.
func NewClient(cfg Config) *Client {
	archivePath := "/" + strings.Trim(cfg.ArchivePath, "/")
	if archivePath == "/" {
		archivePath = ""
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		archivePath: archivePath,
		window:      strconv.FormatInt(cfg.WindowSeconds, 10),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchSince requests all samples on ch with a timestamp at or after startSeconds.
// Image channels request timestamps only.
func (c *Client) FetchSince(ctx context.Context, ch models.Channel, startSeconds float64) ([]byte, error) {
	query := "r=absolute&d=" + c.window + "&t=" + formatSeconds(startSeconds)
	if ch.Kind == models.KindImage {
		query += "&f=t"
	}

	start := time.Now()
	body, err := c.get(ctx, c.channelURL(ch.Key)+"?"+query)
	if !errors.Is(err, ErrNoNewData) {
		metrics.RecordUpstreamRequest("fetch", time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ch.Key, err)
	}
	return body, nil
}

// List fetches the directory listing at path, relative to the base URL.
func (c *Client) List(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	start := time.Now()
	body, err := c.get(ctx, c.baseURL+escapePath(path))
	metrics.RecordUpstreamRequest("list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return body, nil
}

// ImageURL returns the URL a client uses to load the image stored on key at seconds.
func (c *Client) ImageURL(key string, seconds float64) string {
	return c.channelURL(key) + "?r=absolute&t=" + formatSeconds(seconds)
}

func (c *Client) channelURL(key string) string {
	return c.baseURL + c.archivePath + "/" + escapePath(key)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, ErrNoNewData
	default:
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// escapePath escapes each segment of a slash-delimited path, keeping the slashes.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
