// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package upstream

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/metrics"
	"github.com/tomtom215/ctbridge/internal/models"
)

var _ Archive = (*BreakerClient)(nil)

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Name         string
	FailureRatio float64
	MinRequests  uint32
	Timeout      time.Duration
}

// BreakerClient wraps Client with a circuit breaker around range fetches.
// Listings and image URLs pass straight through.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	name   string
}

// NewBreakerClient wraps client. The breaker opens when the failure ratio
// reaches FailureRatio over at least MinRequests requests and probes again
// after Timeout.
func NewBreakerClient(client *Client, cfg BreakerConfig) *BreakerClient {
	name := cfg.Name
	if name == "" {
		name = "ctweb-archive"
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening archive circuit")
			}
			return shouldTrip
		},

		// An empty range is the archive working as intended.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoNewData)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Archive state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{client: client, cb: cb, name: name}
}

// FetchSince performs a range fetch with circuit breaker protection. When the
// circuit is open the error wraps gobreaker.ErrOpenState.
func (b *BreakerClient) FetchSince(ctx context.Context, ch models.Channel, startSeconds float64) ([]byte, error) {
	body, err := b.cb.Execute(func() ([]byte, error) {
		return b.client.FetchSince(ctx, ch, startSeconds)
	})

	switch {
	case err == nil, errors.Is(err, ErrNoNewData):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	case IsRejected(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
	}

	return body, err
}

// List delegates to the wrapped client without breaker protection.
func (b *BreakerClient) List(ctx context.Context, path string) ([]byte, error) {
	return b.client.List(ctx, path)
}

// ImageURL delegates to the wrapped client.
func (b *BreakerClient) ImageURL(key string, seconds float64) string {
	return b.client.ImageURL(key, seconds)
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

// IsRejected reports whether err came from an open or saturated breaker.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
