// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package telemetry

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/normalize"
	"github.com/tomtom215/ctbridge/internal/registry"
	"github.com/tomtom215/ctbridge/internal/upstream"
)

func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	starts map[string][]float64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string]string),
		errs:   make(map[string]error),
		starts: make(map[string][]float64),
	}
}

func (f *fakeFetcher) set(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[key] = body
}

func (f *fakeFetcher) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *fakeFetcher) startsFor(key string) []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.starts[key]...)
}

func (f *fakeFetcher) FetchSince(_ context.Context, ch models.Channel, start float64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.starts[ch.Key] = append(f.starts[ch.Key], start)
	if err := f.errs[ch.Key]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[ch.Key]
	if !ok {
		return nil, upstream.ErrNoNewData
	}
	return []byte(body), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu      sync.Mutex
	samples []models.Sample
}

func (r *recorder) listen(s models.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

func (r *recorder) forChannel(key string) []models.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Sample
	for _, s := range r.samples {
		if s.ID == key {
			out = append(out, s)
		}
	}
	return out
}

const (
	floatKey = "src/c1.f32"
	intKey   = "src/c0.i32"
)

func newTestSource(t *testing.T, fetcher Fetcher, clock *fakeClock, cfg Config, paths ...string) *Source {
	t.Helper()

	if len(paths) == 0 {
		paths = []string{floatKey, intKey}
	}
	n := normalize.New(func(key string, seconds float64) string { return key })
	return NewSource(cfg, fetcher, n, registry.Build(paths), WithClock(clock.Now))
}

func checkStrictlyIncreasing(t *testing.T, samples []models.Sample) {
	t.Helper()
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp <= samples[i-1].Timestamp {
			t.Fatalf("timestamps not strictly increasing at %d: %v <= %v", i, samples[i].Timestamp, samples[i-1].Timestamp)
		}
	}
}

func TestNewSource_InitialState(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 750*int64(time.Millisecond))}
	s := newTestSource(t, newFakeFetcher(), clock, Config{})

	tests := []struct {
		key  string
		want any
	}{
		{floatKey, float64(0)},
		{intKey, int64(0)},
		{registry.CommsSentKey, int64(0)},
	}
	for _, tt := range tests {
		got, ok := s.Current(tt.key)
		if !ok || got != tt.want {
			t.Errorf("Current(%q) = %#v, %v; want %#v", tt.key, got, ok, tt.want)
		}
	}

	last, ok := s.LastAccepted(floatKey)
	if !ok || last != 1700000000 {
		t.Errorf("LastAccepted = %v, want floor of clock seconds", last)
	}
	if s.Ready() {
		t.Error("source should not be ready before the first tick")
	}
	if _, ok := s.Current("missing"); ok {
		t.Error("unknown key should not have a current value")
	}
}

func TestTick_AcceptsAndNotifies(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 500*int64(time.Millisecond))}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1.5\n1700000002,2.5\n")
	fetcher.set(intKey, "1700000003000,7\n")

	s := newTestSource(t, fetcher, clock, Config{})
	rec := &recorder{}
	sub := s.Subscribe(rec.listen)
	defer sub.Cancel()

	s.Tick(context.Background())

	history := s.History(floatKey)
	if len(history) != 2 {
		t.Fatalf("expected 2 history samples, got %d", len(history))
	}
	if history[0].Timestamp != 1700000001000 || history[1].Value != 2.5 {
		t.Errorf("unexpected history %+v", history)
	}
	if got, _ := s.Current(floatKey); got != 2.5 {
		t.Errorf("Current = %v, want 2.5", got)
	}
	if got, _ := s.Current(intKey); got != int64(7) {
		t.Errorf("Current(int) = %#v, want 7", got)
	}
	if last, _ := s.LastAccepted(intKey); last != 1700000003 {
		t.Errorf("LastAccepted(int) = %v, want 1700000003", last)
	}

	if got := rec.forChannel(floatKey); len(got) != 2 {
		t.Errorf("listener got %d float samples, want 2", len(got))
	}
	if got := rec.forChannel(registry.CommsSentKey); len(got) != 1 {
		t.Errorf("listener got %d counter samples, want 1", len(got))
	}
	if !s.Ready() || s.LastTick().IsZero() {
		t.Error("source should be ready after a tick")
	}

	starts := fetcher.startsFor(floatKey)
	if len(starts) != 1 || starts[0] != 1700000000.001 {
		t.Errorf("fetch starts = %v, want [1700000000.001]", starts)
	}
	if len(fetcher.startsFor(registry.CommsSentKey)) != 0 {
		t.Error("byte counter must never be fetched")
	}
}

func TestTick_ByteCounterTracksEmittedBytes(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 500*int64(time.Millisecond))}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1.5\n1700000002,2.5\n")

	s := newTestSource(t, fetcher, clock, Config{})
	s.Tick(context.Background())
	clock.Advance(time.Second)
	s.Tick(context.Background())

	total := 0
	for _, ch := range s.Channels() {
		for _, sample := range s.History(ch.Key) {
			total += encodedSize(sample)
		}
	}

	got, _ := s.Current(registry.CommsSentKey)
	if got != int64(total) {
		t.Errorf("comms.sent = %v, want %d", got, total)
	}

	counter := s.History(registry.CommsSentKey)
	if len(counter) != 2 {
		t.Fatalf("expected 2 counter samples, got %d", len(counter))
	}
	if counter[0].Value != int64(0) {
		t.Errorf("first counter value = %v, want 0", counter[0].Value)
	}
	if counter[1].Timestamp != 1700000001500 {
		t.Errorf("counter timestamp = %v, want wall clock millis", counter[1].Timestamp)
	}
}

func TestTick_ByteCounterSkipsRepeatedTimestamp(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 500*int64(time.Millisecond))}
	s := newTestSource(t, newFakeFetcher(), clock, Config{})

	s.Tick(context.Background())
	s.Tick(context.Background())

	counter := s.History(registry.CommsSentKey)
	if len(counter) != 1 {
		t.Errorf("expected 1 counter sample with a frozen clock, got %d", len(counter))
	}
}

func TestTick_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1\n1700000002,2\n1700000003,3\n")

	s := newTestSource(t, fetcher, clock, Config{})
	rec := &recorder{}
	s.Subscribe(rec.listen)

	for i := 0; i < 5; i++ {
		s.Tick(context.Background())
	}

	history := s.History(floatKey)
	if len(history) != 3 {
		t.Errorf("expected 3 samples after replays, got %d", len(history))
	}
	checkStrictlyIncreasing(t, history)

	if got := rec.forChannel(floatKey); len(got) != 3 {
		t.Errorf("listener got %d samples, want 3", len(got))
	}

	starts := fetcher.startsFor(floatKey)
	if starts[len(starts)-1] != 1700000003.001 {
		t.Errorf("last fetch start = %v, want 1700000003.001", starts[len(starts)-1])
	}
}

func TestApply_OverlappingBatches(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := newTestSource(t, newFakeFetcher(), clock, Config{})
	n := normalize.New(nil)
	ch := models.Channel{Key: floatKey, Kind: models.KindFloat}

	// Two fetches issued from the same lower bound, completing out of order.
	wide := n.Parse([]byte("1700000001,1\n1700000002,2\n1700000003,3\n"), ch, 1700000000)
	narrow := n.Parse([]byte("1700000001,1\n1700000002,2\n"), ch, 1700000000)

	if got := s.apply(floatKey, wide); got != 3 {
		t.Fatalf("first apply accepted %d, want 3", got)
	}
	if got := s.apply(floatKey, narrow); got != 0 {
		t.Errorf("overlapping apply accepted %d, want 0", got)
	}

	history := s.History(floatKey)
	if len(history) != 3 {
		t.Errorf("expected 3 samples, got %d", len(history))
	}
	checkStrictlyIncreasing(t, history)
}

func TestTick_FetchErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	fetcher.fail(intKey, errors.New("connection refused"))
	fetcher.set(floatKey, "1700000001,1\n")

	s := newTestSource(t, fetcher, clock, Config{})
	s.Tick(context.Background())
	s.Tick(context.Background())

	if len(s.History(floatKey)) != 1 {
		t.Error("healthy channel should still accept samples")
	}
	if len(s.History(intKey)) != 0 {
		t.Error("failing channel should have no samples")
	}
	if starts := fetcher.startsFor(intKey); len(starts) != 2 || starts[1] != 1700000000.001 {
		t.Errorf("failing channel should retry from the same bound, got %v", starts)
	}
}

func TestTick_UnexpectedHTMLIsSkipped(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "<html><body>Service Unavailable</body></html>")

	s := newTestSource(t, fetcher, clock, Config{})
	s.Tick(context.Background())

	if len(s.History(floatKey)) != 0 {
		t.Error("HTML body must not produce samples")
	}
}

func TestHistory_RetentionCap(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1\n1700000002,2\n1700000003,3\n1700000004,4\n1700000005,5\n")

	s := newTestSource(t, fetcher, clock, Config{HistoryMaxSamples: 3})
	s.Tick(context.Background())

	history := s.History(floatKey)
	if len(history) != 3 {
		t.Fatalf("expected cap of 3 samples, got %d", len(history))
	}
	if history[0].Value != 3.0 || history[2].Value != 5.0 {
		t.Errorf("expected oldest samples evicted, got %+v", history)
	}
}

func TestHistory_ReturnsCopy(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1\n")

	s := newTestSource(t, fetcher, clock, Config{})
	s.Tick(context.Background())

	h := s.History(floatKey)
	h[0].Value = 99.0

	if s.History(floatKey)[0].Value != 1.0 {
		t.Error("mutating a History result must not affect the buffer")
	}
	if s.History("missing") != nil {
		t.Error("unknown key should return nil history")
	}
}

func TestRunWithContext(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.set(floatKey, "1700000001,1\n")

	n := normalize.New(nil)
	s := NewSource(Config{PollInterval: 10 * time.Millisecond}, fetcher, n, registry.Build([]string{floatKey}),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunWithContext(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(fetcher.startsFor(floatKey)) < 3 {
		select {
		case <-deadline:
			t.Fatal("source did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if !s.Ready() {
		t.Error("source should be ready")
	}
	if len(s.History(floatKey)) != 1 {
		t.Errorf("expected 1 sample, got %d", len(s.History(floatKey)))
	}
}

func TestTick_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	fetcher := newFakeFetcher()
	s := newTestSource(t, fetcher, clock, Config{MaxConcurrentFetches: 2})

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			s.Query([]string{floatKey, intKey}, 0, 1e15)
			s.History(floatKey)
		}
	}()

	for i := 1; i <= 50; i++ {
		fetcher.set(floatKey, "17000000"+twoDigits(i)+",1\n")
		clock.Advance(time.Millisecond)
		s.Tick(context.Background())
	}
	cancel()
	wg.Wait()

	history := s.History(floatKey)
	if len(history) != 50 {
		t.Errorf("expected 50 samples, got %d", len(history))
	}
	checkStrictlyIncreasing(t, history)
}

func twoDigits(i int) string {
	return string([]byte{byte('0' + i/10), byte('0' + i%10)})
}
