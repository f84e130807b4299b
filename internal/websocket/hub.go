// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package websocket

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/telemetry"
)

// ErrHubUnavailable is returned when a connection cannot be registered
// because the hub loop is not running.
var ErrHubUnavailable = errors.New("websocket hub not running")

const lifecycleTimeout = 5 * time.Second

// SampleSource is the subset of the telemetry source the hub needs.
type SampleSource interface {
	Subscribe(fn telemetry.Listener) *telemetry.Subscription
}

// Hub tracks the clients of one live delivery endpoint.
type Hub struct {
	name           string
	source         SampleSource
	allowedOrigins []string
	clients        map[*Client]struct{}
	Register       chan *Client
	Unregister     chan *Client
	mu             sync.RWMutex
}

// NewHub creates a Hub for the endpoint called name. Every client it accepts
// listens on source. allowedOrigins may contain "*" to accept any origin.
func NewHub(name string, source SampleSource, allowedOrigins []string) *Hub {
	return &Hub{
		name:           name,
		source:         source,
		allowedOrigins: allowedOrigins,
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		clients:        make(map[*Client]struct{}),
	}
}

// Name returns the endpoint name.
func (h *Hub) Name() string {
	return h.name
}

// RunWithContext processes client lifecycle events until ctx is canceled,
// then closes every client and returns ctx.Err().
//
// A canceled hub never admits another client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case c := <-h.Register:
			if ctx.Err() != nil {
				// Lost the race with cancellation.
				c.shutdown()
				continue
			}
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		}
	}
	h.drain(ctx)
	return ctx.Err()
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.WithLabelValues(h.name).Set(float64(count))
	logging.Info().
		Str("endpoint", h.name).
		Uint64("client_id", client.id).
		Int("total_clients", count).
		Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	count := len(h.clients)
	h.mu.Unlock()

	client.shutdown()
	if !ok {
		return
	}

	metrics.WSConnections.WithLabelValues(h.name).Set(float64(count))
	logging.Info().
		Str("endpoint", h.name).
		Uint64("client_id", client.id).
		Int("total_clients", count).
		Msg("websocket client disconnected")
}

// unregister hands client to the hub loop, removing it directly if the loop
// does not answer in time.
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-time.After(lifecycleTimeout):
		h.remove(client)
	}
}

// Connect wraps an upgraded connection in a Client, registers it and starts
// its pumps. The client receives nothing until it subscribes to a key.
func (h *Hub) Connect(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	client := NewClient(h, conn)
	client.sub = h.source.Subscribe(client.deliver)

	timer := time.NewTimer(lifecycleTimeout)
	defer timer.Stop()

	select {
	case h.Register <- client:
	case <-ctx.Done():
		client.shutdown()
		_ = conn.Close()
		return nil, ctx.Err()
	case <-timer.C:
		client.shutdown()
		_ = conn.Close()
		return nil, ErrHubUnavailable
	}

	client.Start()
	return client, nil
}

// ServeWS upgrades the request and connects it to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Str("endpoint", h.name).Msg("websocket upgrade failed")
		return
	}

	if _, err := h.Connect(r.Context(), conn); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("endpoint", h.name).Msg("websocket connection rejected")
	}
}

// checkOrigin accepts any request under a wildcard. Otherwise the Origin
// header must be listed.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if slices.Contains(h.allowedOrigins, "*") || (origin != "" && slices.Contains(h.allowedOrigins, origin)) {
		return true
	}

	logging.Warn().Str("endpoint", h.name).Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// stopReason names the cause of ctx's cancellation for the shutdown log.
func stopReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "deadline"
	}
	return "canceled"
}

// drain closes every client, oldest first, and logs the shutdown.
func (h *Hub) drain(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	clear(h.clients)
	h.mu.Unlock()

	slices.SortFunc(clients, func(a, b *Client) int { return cmp.Compare(a.id, b.id) })
	for _, c := range clients {
		c.shutdown()
	}
	metrics.WSConnections.WithLabelValues(h.name).Set(0)

	logging.Info().
		Str("endpoint", h.name).
		Str("reason", stopReason(ctx)).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
