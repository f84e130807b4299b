// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package websocket

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/telemetry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 256
)

// Control commands accepted from clients.
const (
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
)

var clientIDCounter atomic.Uint64

// Client is one live delivery connection.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu         sync.Mutex
	closed     bool
	subscribed map[string]struct{}

	sub       *telemetry.Subscription
	closeOnce sync.Once
}

// NewClient creates a Client with a unique ID and no subscriptions.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:         clientIDCounter.Add(1),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		subscribed: make(map[string]struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// IsSubscribed reports whether key is in the client's subscription set.
func (c *Client) IsSubscribed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscribed[key]
	return ok
}

// Subscriptions returns the number of subscribed keys.
func (c *Client) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribed)
}

// deliver is the telemetry listener for this client.
func (c *Client) deliver(sample models.Sample) {
	if !c.IsSubscribed(sample.ID) {
		return
	}

	data, err := json.Marshal(sample)
	if err != nil {
		metrics.WSErrors.WithLabelValues("encode").Inc()
		logging.Warn().Err(err).Str("channel", sample.ID).Msg("failed to encode sample")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.WSMessagesDropped.Inc()
	}
}

// handleCommand applies one control message. The key is everything after
// the first space, so keys may contain spaces. Unrecognized input is ignored.
func (c *Client) handleCommand(text string) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) != 2 {
		logging.Debug().Uint64("client_id", c.id).Str("message", text).Msg("ignoring websocket message")
		return
	}
	key := strings.TrimSpace(parts[1])
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch parts[0] {
	case CommandSubscribe:
		c.subscribed[key] = struct{}{}
	case CommandUnsubscribe:
		delete(c.subscribed, key)
	default:
		logging.Debug().Uint64("client_id", c.id).Str("command", parts[0]).Msg("ignoring unknown websocket command")
	}
}

// shutdown cancels the telemetry listener and closes the send queue. Safe to
// call more than once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.sub.Cancel()

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump reads control commands until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.shutdown()
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleCommand(string(data))
	}
}

// writePump writes queued samples and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("failed to write sample")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
