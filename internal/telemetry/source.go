// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package telemetry

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/normalize"
)

// Fetcher retrieves raw range responses from the archive.
type Fetcher interface {
	FetchSince(ctx context.Context, ch models.Channel, startSeconds float64) ([]byte, error)
}

// Config holds Telemetry Source settings.
type Config struct {
	// PollInterval is the tick period. Default: 250ms
	PollInterval time.Duration

	// MaxConcurrentFetches bounds in-flight fetches per tick. Default: 16
	MaxConcurrentFetches int

	// HistoryMaxSamples caps each channel's history; the oldest sample is
	// evicted first. Zero keeps everything.
	HistoryMaxSamples int

	// StartEpsilon is added to the last accepted timestamp when fetching so
	// the boundary sample is not requested again. Default: 0.001
	StartEpsilon float64
}

// DefaultConfig returns the default source configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:         250 * time.Millisecond,
		MaxConcurrentFetches: 16,
		HistoryMaxSamples:    100000,
		StartEpsilon:         0.001,
	}
}

// Listener receives every accepted sample.
type Listener func(models.Sample)

type channelState struct {
	channel models.Channel

	// lastAccepted is in seconds; lastMillis is the timestamp of the newest
	// history entry and is the authoritative ordering bound.
	lastAccepted float64
	lastMillis   float64

	current any
	history []models.Sample
}

// Source owns all per-channel runtime state.
type Source struct {
	cfg        Config
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	channels   []models.Channel
	now        func() time.Time

	// applyMu serializes writers across accept and notify.
	applyMu sync.Mutex

	mu     sync.RWMutex
	states map[string]*channelState

	listenersMu    sync.RWMutex
	listeners      map[uint64]Listener
	nextListenerID uint64

	ready    atomic.Bool
	lastTick atomic.Int64
	wg       sync.WaitGroup
}

// Option configures a Source.
type Option func(*Source)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// NewSource creates a source for channels. The channel list normally comes
// from registry.Build and should include the comms.sent counter.
func NewSource(cfg Config, fetcher Fetcher, normalizer *normalize.Normalizer, channels []models.Channel, opts ...Option) *Source {
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.MaxConcurrentFetches <= 0 {
		cfg.MaxConcurrentFetches = defaults.MaxConcurrentFetches
	}
	if cfg.HistoryMaxSamples < 0 {
		cfg.HistoryMaxSamples = 0
	}
	if cfg.StartEpsilon <= 0 {
		cfg.StartEpsilon = defaults.StartEpsilon
	}

	s := &Source{
		cfg:        cfg,
		fetcher:    fetcher,
		normalizer: normalizer,
		channels:   append([]models.Channel(nil), channels...),
		now:        time.Now,
		states:     make(map[string]*channelState, len(channels)),
		listeners:  make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	start := math.Floor(float64(s.now().UnixMilli()) / 1000)
	for _, ch := range s.channels {
		s.states[ch.Key] = &channelState{
			channel:      ch,
			lastAccepted: start,
			lastMillis:   start * 1000,
			current:      ch.Kind.ZeroValue(),
		}
	}

	return s
}

// Channels returns the channel list.
func (s *Source) Channels() []models.Channel {
	return append([]models.Channel(nil), s.channels...)
}

// Current returns the latest value of key.
func (s *Source) Current(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return nil, false
	}
	return st.current, true
}

// LastAccepted returns the last accepted timestamp of key in seconds.
func (s *Source) LastAccepted(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return 0, false
	}
	return st.lastAccepted, true
}

// History returns a copy of key's buffer, or nil for an unknown key.
func (s *Source) History(key string) []models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return nil
	}
	return append([]models.Sample(nil), st.history...)
}

// Query returns, for each key in order, the samples with
// start < timestamp < end (milliseconds). Unknown keys contribute nothing.
// The result is never nil.
func (s *Source) Query(keys []string, start, end float64) []models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Sample, 0)
	for _, key := range keys {
		st, ok := s.states[key]
		if !ok {
			continue
		}

		h := st.history
		i := sort.Search(len(h), func(i int) bool { return h[i].Timestamp > start })
		for ; i < len(h) && h[i].Timestamp < end; i++ {
			result = append(result, h[i])
		}
	}
	return result
}

// Ready reports whether at least one tick has completed.
func (s *Source) Ready() bool {
	return s.ready.Load()
}

// LastTick returns the completion time of the most recent tick.
func (s *Source) LastTick() time.Time {
	ns := s.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

