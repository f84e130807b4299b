// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package telemetry

import (
	"sort"
	"sync"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
)

// Subscription is the handle returned by Subscribe. Cancel deregisters the
// listener; calling it more than once is a no-op.
type Subscription struct {
	source *Source
	id     uint64
	once   sync.Once
}

// Cancel removes the listener. A delivery already in progress may still complete.
func (sub *Subscription) Cancel() {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		sub.source.removeListener(sub.id)
	})
}

// Subscribe registers fn to receive every accepted sample.
func (s *Source) Subscribe(fn Listener) *Subscription {
	s.listenersMu.Lock()
	s.nextListenerID++
	id := s.nextListenerID
	s.listeners[id] = fn
	count := len(s.listeners)
	s.listenersMu.Unlock()

	metrics.Listeners.Inc()
	logging.Debug().Uint64("listener_id", id).Int("listeners", count).Msg("Listener registered")

	return &Subscription{source: s, id: id}
}

func (s *Source) removeListener(id uint64) {
	s.listenersMu.Lock()
	_, ok := s.listeners[id]
	delete(s.listeners, id)
	s.listenersMu.Unlock()

	if ok {
		metrics.Listeners.Dec()
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Source) ListenerCount() int {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return len(s.listeners)
}

// Notify delivers sample to every registered listener in registration order.
func (s *Source) Notify(sample models.Sample) {
	s.listenersMu.RLock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Listener, len(ids))
	for i, id := range ids {
		fns[i] = s.listeners[id]
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		callListener(fn, sample)
	}
}

func callListener(fn Listener, sample models.Sample) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ListenerPanics.Inc()
			logging.Error().
				Interface("panic", r).
				Str("channel", sample.ID).
				Msg("Listener panicked")
		}
	}()
	fn(sample)
}
