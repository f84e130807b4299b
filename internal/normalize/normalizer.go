// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package normalize turns raw archive range responses into typed, deduplicated
// samples for a single channel.
package normalize

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/ctbridge/internal/models"
	"github.com/tomtom215/ctbridge/internal/registry"
)

const (
	// MillisecondThreshold is the raw timestamp above which a value is taken
	// to be milliseconds rather than seconds since the epoch.
	MillisecondThreshold = 3.0e9

	// PCMScale maps 16-bit PCM samples into [-1, 1].
	PCMScale = 32768.0
)

// ImageURLFunc builds the fetch URL for an image stored on key at seconds.
type ImageURLFunc func(key string, seconds float64) string

// Batch is the result of parsing one archive response.
type Batch struct {
	// Samples are ordered by strictly increasing timestamp (milliseconds).
	Samples []models.Sample

	// LastAccepted is the highest accepted timestamp in seconds, or the
	// input lastAccepted when nothing was accepted.
	LastAccepted float64

	// NoData is set when the archive answered with its not-found page.
	NoData bool

	// Unexpected is set when the body was an HTML page other than not-found.
	Unexpected bool

	Malformed int
	Stale     int
}

// Normalizer parses archive bodies. It holds no per-channel state and is safe
// for concurrent use.
type Normalizer struct {
	imageURL ImageURLFunc
}

// New creates a Normalizer. imageURL is used to synthesize values on image channels.
func New(imageURL ImageURLFunc) *Normalizer {
	return &Normalizer{imageURL: imageURL}
}

// Parse converts body into samples on ch newer than lastAccepted (seconds).
// Lines that do not parse are counted and skipped; parsing never fails as a whole.
func (n *Normalizer) Parse(body []byte, ch models.Channel, lastAccepted float64) Batch {
	batch := Batch{LastAccepted: lastAccepted}

	if isHTML(body) {
		if bytes.Contains(bytes.ToLower(body), []byte("http error 404")) {
			batch.NoData = true
		} else {
			batch.Unexpected = true
		}
		return batch
	}

	wav := registry.IsWAV(ch.Key)

	for _, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		tsText, valueText, ok := splitLine(line, ch.Kind)
		if !ok {
			batch.Malformed++
			continue
		}

		ts, err := strconv.ParseFloat(tsText, 64)
		if err != nil || !finite(ts) {
			batch.Malformed++
			continue
		}
		if ts > MillisecondThreshold {
			ts /= 1000
		}
		if ts <= batch.LastAccepted {
			batch.Stale++
			continue
		}

		value, ok := n.value(ch, valueText, ts, wav)
		if !ok {
			batch.Malformed++
			continue
		}

		batch.Samples = append(batch.Samples, models.Sample{
			Timestamp: ts * 1000,
			Value:     value,
			ID:        ch.Key,
		})
		batch.LastAccepted = ts
	}

	return batch
}

// splitLine separates a record into timestamp and value text. Image records
// are a bare timestamp.
func splitLine(line string, kind models.Kind) (ts, value string, ok bool) {
	if kind == models.KindImage {
		if idx := strings.IndexByte(line, ','); idx >= 0 {
			line = line[:idx]
		}
		return strings.TrimSpace(line), "", line != ""
	}

	idx := strings.IndexByte(line, ',')
	if idx <= 0 || idx == len(line)-1 {
		return "", "", false
	}

	ts = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return ts, value, ts != "" && value != ""
}

func (n *Normalizer) value(ch models.Channel, text string, seconds float64, wav bool) (any, bool) {
	if wav {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || !finite(v) {
			return nil, false
		}
		return v / PCMScale, true
	}

	switch ch.Kind {
	case models.KindInteger:
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, true
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || !finite(f) || math.Abs(f) >= math.MaxInt64 {
			return nil, false
		}
		return int64(f), true
	case models.KindFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || !finite(v) {
			return nil, false
		}
		return v, true
	case models.KindImage:
		if n.imageURL == nil {
			return nil, false
		}
		return n.imageURL(ch.Key, seconds), true
	default:
		return text, true
	}
}

func isHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) >= 5 && bytes.EqualFold(trimmed[:5], []byte("<html"))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
