// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	keyCorrelation ctxKey = iota
	keyRequest
)

// GenerateCorrelationID returns an 8 character ID, short enough to grep for
// across the log lines of one history query or WebSocket session.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyCorrelation, id)
}

// ContextWithNewCorrelationID attaches a fresh correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequest, id)
}

// CorrelationIDFromContext returns "" when ctx carries none.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, keyCorrelation)
}

// RequestIDFromContext returns "" when ctx carries none.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, keyRequest)
}

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// Ctx returns the global logger enriched with the request and correlation
// IDs carried by ctx.
//
//	logging.Ctx(r.Context()).Debug().Strs("keys", keys).Msg("History query served")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	fields := map[string]any{}
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields["correlation_id"] = id
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if len(fields) > 0 {
		l = l.With().Fields(fields).Logger()
	}
	return &l
}
