// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package websocket

import (
	"testing"

	"github.com/tomtom215/ctbridge/internal/models"
)

func newBareClient() *Client {
	return NewClient(NewHub("test", nil, nil), nil)
}

func TestNewClient_UniqueIDs(t *testing.T) {
	a := newBareClient()
	b := newBareClient()

	if a.ID() == b.ID() {
		t.Errorf("clients share ID %d", a.ID())
	}
	if a.Subscriptions() != 0 {
		t.Errorf("new client has %d subscriptions, want 0", a.Subscriptions())
	}
}

func TestClient_HandleCommand(t *testing.T) {
	tests := []struct {
		name     string
		commands []string
		want     map[string]bool
	}{
		{
			name:     "subscribe",
			commands: []string{"subscribe temp.f32"},
			want:     map[string]bool{"temp.f32": true},
		},
		{
			name:     "subscribe twice is one entry",
			commands: []string{"subscribe a", "subscribe a"},
			want:     map[string]bool{"a": true},
		},
		{
			name:     "unsubscribe",
			commands: []string{"subscribe a", "subscribe b", "unsubscribe a"},
			want:     map[string]bool{"a": false, "b": true},
		},
		{
			name:     "unsubscribe unknown key",
			commands: []string{"unsubscribe nothing"},
			want:     map[string]bool{"nothing": false},
		},
		{
			name:     "surrounding whitespace",
			commands: []string{"  subscribe a  \n"},
			want:     map[string]bool{"a": true},
		},
		{
			name:     "key with spaces",
			commands: []string{"subscribe My Source/temp.f32"},
			want:     map[string]bool{"My Source/temp.f32": true, "My": false},
		},
		{
			name:     "unsubscribe key with spaces",
			commands: []string{"subscribe a b", "subscribe a", "unsubscribe a b"},
			want:     map[string]bool{"a b": false, "a": true},
		},
		{
			name:     "unknown verb",
			commands: []string{"listen a"},
			want:     map[string]bool{"a": false},
		},
		{
			name:     "missing key",
			commands: []string{"subscribe"},
			want:     map[string]bool{"": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBareClient()
			for _, cmd := range tt.commands {
				c.handleCommand(cmd)
			}
			for key, want := range tt.want {
				if got := c.IsSubscribed(key); got != want {
					t.Errorf("IsSubscribed(%q) = %v, want %v", key, got, want)
				}
			}
		})
	}
}

func TestClient_DeliverFiltersAndQueues(t *testing.T) {
	c := newBareClient()
	c.handleCommand("subscribe A")

	c.deliver(models.Sample{Timestamp: 1, Value: 1.0, ID: "B"})
	c.deliver(models.Sample{Timestamp: 2, Value: 2.0, ID: "A"})

	if got := len(c.send); got != 1 {
		t.Fatalf("queued %d messages, want 1", got)
	}
	want := `{"timestamp":2,"value":2,"id":"A"}`
	if got := string(<-c.send); got != want {
		t.Errorf("message = %s, want %s", got, want)
	}
}

func TestClient_DeliverDropsWhenFull(t *testing.T) {
	c := newBareClient()
	c.handleCommand("subscribe A")

	for i := 0; i < sendBufferSize+10; i++ {
		c.deliver(models.Sample{Timestamp: float64(i), Value: 1.0, ID: "A"})
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("queued %d messages, want %d", got, sendBufferSize)
	}
}

func TestClient_ShutdownIdempotent(t *testing.T) {
	c := newBareClient()
	c.handleCommand("subscribe A")

	c.shutdown()
	c.shutdown()

	// Delivery after shutdown is a no-op rather than a send on a closed channel.
	c.deliver(models.Sample{Timestamp: 1, Value: 1.0, ID: "A"})

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed and empty")
	}
}
