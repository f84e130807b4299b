// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/ctbridge/internal/validation"
)

// HistoryRequest is a parsed historical telemetry query. Start and End are
// exclusive bounds in milliseconds; a missing bound is infinite. At most 256
// keys are accepted.
type HistoryRequest struct {
	Keys  []string `query:"keys" validate:"required,min=1,max=256,dive,channelkey"`
	Start float64  `query:"start"`
	End   float64  `query:"end"`
}

// parseKeys splits the raw path parameter into channel keys. Each key is
// unescaped individually so an encoded comma stays inside its key.
func parseKeys(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		key, err := url.PathUnescape(part)
		if err != nil {
			return nil, fmt.Errorf("invalid channel key %q: %w", part, err)
		}
		keys = append(keys, strings.TrimSpace(key))
	}
	return keys, nil
}

// parseBound reads a millisecond bound from the query string. An empty
// value returns fallback.
func parseBound(r *http.Request, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number of milliseconds", name)
	}
	return v, nil
}

// parseHistoryRequest builds and validates a HistoryRequest. The returned
// APIError is nil on success.
func parseHistoryRequest(r *http.Request, rawKeys string) (*HistoryRequest, *APIError) {
	keys, err := parseKeys(rawKeys)
	if err != nil {
		return nil, &APIError{Code: ErrCodeBadRequest, Message: err.Error()}
	}

	start, err := parseBound(r, "start", math.Inf(-1))
	if err != nil {
		return nil, &APIError{Code: ErrCodeBadRequest, Message: err.Error()}
	}
	end, err := parseBound(r, "end", math.Inf(1))
	if err != nil {
		return nil, &APIError{Code: ErrCodeBadRequest, Message: err.Error()}
	}

	req := &HistoryRequest{Keys: keys, Start: start, End: end}
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		return nil, &APIError{
			Code:    ErrCodeValidationFailed,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	}
	return req, nil
}
