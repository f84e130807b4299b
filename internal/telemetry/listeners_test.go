// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package telemetry

import (
	"testing"
	"time"

	"github.com/tomtom215/ctbridge/internal/models"
)

func TestSubscribe_FanOut(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, newFakeFetcher(), &fakeClock{now: time.Unix(0, 0)}, Config{})

	a, b := &recorder{}, &recorder{}
	s.Subscribe(a.listen)
	s.Subscribe(b.listen)

	s.Notify(models.Sample{Timestamp: 1, Value: 1.0, ID: floatKey})

	if len(a.forChannel(floatKey)) != 1 || len(b.forChannel(floatKey)) != 1 {
		t.Error("every listener should receive the sample")
	}
	if s.ListenerCount() != 2 {
		t.Errorf("ListenerCount = %d, want 2", s.ListenerCount())
	}
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, newFakeFetcher(), &fakeClock{now: time.Unix(0, 0)}, Config{})

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Subscribe(func(models.Sample) { order = append(order, i) })
	}
	s.Notify(models.Sample{ID: floatKey})

	for i, got := range order {
		if got != i {
			t.Fatalf("listeners called out of order: %v", order)
		}
	}
}

func TestSubscription_CancelIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, newFakeFetcher(), &fakeClock{now: time.Unix(0, 0)}, Config{})
	rec := &recorder{}

	sub := s.Subscribe(rec.listen)
	sub.Cancel()
	sub.Cancel()

	var nilSub *Subscription
	nilSub.Cancel()

	s.Notify(models.Sample{Timestamp: 1, ID: floatKey})

	if len(rec.forChannel(floatKey)) != 0 {
		t.Error("canceled listener must not receive samples")
	}
	if s.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", s.ListenerCount())
	}
}

func TestNotify_PanickingListenerDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, newFakeFetcher(), &fakeClock{now: time.Unix(0, 0)}, Config{})
	rec := &recorder{}

	s.Subscribe(func(models.Sample) { panic("listener bug") })
	s.Subscribe(rec.listen)

	s.Notify(models.Sample{Timestamp: 1, ID: floatKey})

	if len(rec.forChannel(floatKey)) != 1 {
		t.Error("listener after a panicking one should still be called")
	}
}

func TestNotify_ListenerMayCancelItself(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, newFakeFetcher(), &fakeClock{now: time.Unix(0, 0)}, Config{})

	calls := 0
	var sub *Subscription
	sub = s.Subscribe(func(models.Sample) {
		calls++
		sub.Cancel()
	})

	s.Notify(models.Sample{ID: floatKey})
	s.Notify(models.Sample{ID: floatKey})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
