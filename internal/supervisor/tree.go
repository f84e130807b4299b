// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Layer selects one of the child supervisors under the root.
type Layer int

const (
	// Ingest runs the archive polling loop.
	Ingest Layer = iota
	// Delivery runs the live WebSocket hubs.
	Delivery
	// API runs the HTTP listeners.
	API

	layerCount
)

var layerNames = [layerCount]string{"ingest-layer", "delivery-layer", "api-layer"}

func (l Layer) String() string {
	if l < 0 || l >= layerCount {
		return fmt.Sprintf("layer(%d)", int(l))
	}
	return layerNames[l]
}

// Config tunes restart behaviour. Zero fields take suture's defaults.
type Config struct {
	FailureThreshold float64       // failures before backoff, default 5
	FailureDecay     float64       // seconds for the failure count to decay, default 30
	FailureBackoff   time.Duration // pause once the threshold is hit, default 15s
	ShutdownTimeout  time.Duration // per-service stop deadline, default 10s
}

// DefaultConfig returns suture's own defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c Config) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree is the root "ctbridge" supervisor with one child per Layer.
type Tree struct {
	root   *suture.Supervisor
	layers [layerCount]*suture.Supervisor
	cfg    Config
}

// New builds the tree. Supervisor events are written to logger, or to
// slog.Default when logger is nil.
func New(logger *slog.Logger, cfg Config) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	rootSpec := cfg.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &Tree{root: suture.New("ctbridge", rootSpec), cfg: cfg}
	for l := Layer(0); l < layerCount; l++ {
		// Children pick up the root's EventHook when added.
		t.layers[l] = suture.New(l.String(), cfg.spec())
		t.root.Add(t.layers[l])
	}
	return t
}

// Root returns the root supervisor.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// Add places svc under layer l. It panics on an unknown layer.
func (t *Tree) Add(l Layer, svc suture.Service) suture.ServiceToken {
	return t.layers[l].Add(svc)
}

// Remove stops the service identified by token and drops it from layer l.
func (t *Tree) Remove(l Layer, token suture.ServiceToken) error {
	return t.layers[l].Remove(token)
}

// ServeBackground starts the tree. The channel yields the root's result
// once every layer has stopped.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services still running after their
// shutdown deadline.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
