// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/normalize"
	"github.com/tomtom215/ctbridge/internal/registry"
	"github.com/tomtom215/ctbridge/internal/upstream"
)

// maxLoggedBody bounds how much of an unexpected archive page is logged.
const maxLoggedBody = 512

// RunWithContext ticks every PollInterval until ctx is canceled. Each tick
// runs in its own goroutine so a slow tick never delays the next one.
// In-flight ticks are awaited before returning.
func (s *Source) RunWithContext(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.cfg.PollInterval).
		Int("channels", len(s.channels)).
		Msg("Telemetry source started")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.startTick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logging.Info().Msg("Telemetry source stopped")
			return ctx.Err()
		case <-ticker.C:
			s.startTick(ctx)
		}
	}
}

func (s *Source) startTick(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Tick(ctx)
	}()
}

// Tick runs one polling cycle: the byte counter is emitted, then every other
// channel is fetched from just after its last accepted timestamp. Tick
// returns when all fetches of this cycle have been applied.
func (s *Source) Tick(ctx context.Context) {
	start := time.Now()

	s.emitCommsSent()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentFetches)

	for _, ch := range s.channels {
		ch := ch
		if ch.Key == registry.CommsSentKey {
			continue
		}

		g.Go(func() error {
			s.poll(gctx, ch)
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(start)
	metrics.RecordTick(duration)
	s.lastTick.Store(time.Now().UnixNano())
	if !s.ready.Swap(true) {
		logging.Info().Dur("duration", duration).Msg("First telemetry tick completed")
	}
	logging.Debug().Dur("duration", duration).Msg("Telemetry tick completed")
}

// poll fetches and applies new samples for one channel. Errors are logged and
// the channel is retried on the next tick.
func (s *Source) poll(ctx context.Context, ch models.Channel) {
	last, _ := s.LastAccepted(ch.Key)

	body, err := s.fetcher.FetchSince(ctx, ch, last+s.cfg.StartEpsilon)
	switch {
	case err == nil:
	case errors.Is(err, upstream.ErrNoNewData):
		metrics.RecordFetch(metrics.FetchResultNoData)
		return
	case upstream.IsRejected(err):
		metrics.RecordFetch(metrics.FetchResultRejected)
		logging.Debug().Str("channel", ch.Key).Msg("Fetch rejected by open circuit")
		return
	case ctx.Err() != nil:
		return
	default:
		metrics.RecordFetch(metrics.FetchResultError)
		logging.Warn().Err(err).Str("channel", ch.Key).Msg("Archive fetch failed")
		return
	}

	batch := s.normalizer.Parse(body, ch, last)
	switch {
	case batch.NoData:
		metrics.RecordFetch(metrics.FetchResultNoData)
		return
	case batch.Unexpected:
		metrics.RecordFetch(metrics.FetchResultError)
		metrics.SamplesSkipped.WithLabelValues("html").Inc()
		logging.Warn().
			Str("channel", ch.Key).
			Str("body", truncate(body, maxLoggedBody)).
			Msg("Unexpected HTML from archive")
		return
	}

	metrics.RecordFetch(metrics.FetchResultData)
	if batch.Malformed > 0 {
		metrics.SamplesSkipped.WithLabelValues("malformed").Add(float64(batch.Malformed))
	}
	if batch.Stale > 0 {
		metrics.SamplesSkipped.WithLabelValues("stale").Add(float64(batch.Stale))
	}

	accepted := s.apply(ch.Key, batch)
	logging.Debug().
		Str("channel", ch.Key).
		Int("accepted", accepted).
		Int("malformed", batch.Malformed).
		Msg("New data points posted")
}

// apply appends the batch to key's history and notifies listeners. Samples at
// or before the newest history entry are dropped, which covers overlapping
// ticks that fetched the same range.
func (s *Source) apply(key string, batch normalize.Batch) int {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	accepted := 0
	for _, sample := range batch.Samples {
		if !s.accept(key, sample) {
			metrics.SamplesSkipped.WithLabelValues("stale").Inc()
			continue
		}
		s.Notify(sample)
		accepted++
	}

	if accepted > 0 {
		s.mu.Lock()
		if st := s.states[key]; st != nil && batch.LastAccepted > st.lastAccepted {
			st.lastAccepted = batch.LastAccepted
		}
		s.mu.Unlock()
	}
	return accepted
}

// emitCommsSent publishes the byte counter stamped with the wall clock.
func (s *Source) emitCommsSent() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.RLock()
	st := s.states[registry.CommsSentKey]
	var value any
	if st != nil {
		value = st.current
	}
	s.mu.RUnlock()
	if st == nil {
		return
	}

	sample := models.Sample{
		Timestamp: float64(s.now().UnixMilli()),
		Value:     value,
		ID:        registry.CommsSentKey,
	}
	if s.accept(registry.CommsSentKey, sample) {
		s.Notify(sample)
	}
}

// accept records sample as the newest entry of key. It reports false when
// the sample would break timestamp ordering. Must be called with applyMu held.
func (s *Source) accept(key string, sample models.Sample) bool {
	size := encodedSize(sample)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[key]
	if !ok || sample.Timestamp <= st.lastMillis {
		return false
	}

	st.current = sample.Value
	st.lastMillis = sample.Timestamp
	if seconds := sample.Timestamp / 1000; seconds > st.lastAccepted {
		st.lastAccepted = seconds
	}

	if limit := s.cfg.HistoryMaxSamples; limit > 0 && len(st.history) >= limit {
		st.history = st.history[1:]
		metrics.HistoryEvicted.Inc()
	} else {
		metrics.HistorySamples.Inc()
	}
	st.history = append(st.history, sample)

	if counter, ok := s.states[registry.CommsSentKey]; ok {
		if n, ok := counter.current.(int64); ok {
			counter.current = n + int64(size)
		}
	}

	metrics.SamplesAccepted.WithLabelValues(string(st.channel.Kind)).Inc()
	return true
}

func encodedSize(sample models.Sample) int {
	data, err := json.Marshal(sample)
	if err != nil {
		return 0
	}
	return len(data)
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
