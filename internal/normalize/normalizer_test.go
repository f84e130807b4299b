// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package normalize

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/tomtom215/ctbridge/internal/models"
)

func testImageURL(key string, seconds float64) string {
	return "http://ctweb:8000/CT/" + key + "?r=absolute&t=" + strconv.FormatFloat(seconds, 'f', -1, 64)
}

var (
	floatChan  = models.Channel{Key: "src/c1.f32", Kind: models.KindFloat}
	intChan    = models.Channel{Key: "src/c0.i32", Kind: models.KindInteger}
	stringChan = models.Channel{Key: "log/status.txt", Kind: models.KindString}
	imageChan  = models.Channel{Key: "cam/front.jpg", Kind: models.KindImage}
	wavChan    = models.Channel{Key: "audio/mic.wav", Kind: models.KindFloat}
)

func TestParse_TimestampUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		line        string
		wantSeconds float64
	}{
		{"milliseconds above threshold", "5000000000,1", 5000000},
		{"seconds below threshold", "1700000000,1", 1700000000},
		{"fractional seconds", "1700000000.25,1", 1700000000.25},
		{"threshold itself is seconds", "3000000000,1", 3000000000},
	}

	n := New(testImageURL)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := n.Parse([]byte(tt.line), floatChan, 0)
			if len(batch.Samples) != 1 {
				t.Fatalf("expected 1 sample, got %d", len(batch.Samples))
			}
			if batch.LastAccepted != tt.wantSeconds {
				t.Errorf("LastAccepted = %v, want %v", batch.LastAccepted, tt.wantSeconds)
			}
			if got := batch.Samples[0].Timestamp; got != tt.wantSeconds*1000 {
				t.Errorf("Timestamp = %v, want %v", got, tt.wantSeconds*1000)
			}
		})
	}
}

func TestParse_WAVScaling(t *testing.T) {
	t.Parallel()

	batch := New(testImageURL).Parse([]byte("1700000000,16384\n1700000001,-32768\n"), wavChan, 0)

	if len(batch.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(batch.Samples))
	}
	if v := batch.Samples[0].Value; v != 0.5 {
		t.Errorf("expected 0.5, got %v", v)
	}
	if v := batch.Samples[1].Value; v != -1.0 {
		t.Errorf("expected -1, got %v", v)
	}
}

func TestParse_StrictlyIncreasing(t *testing.T) {
	t.Parallel()

	body := "10,1\n20,2\n20,3\n15,4\n30,5\n"
	batch := New(testImageURL).Parse([]byte(body), intChan, 0)

	if len(batch.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d: %+v", len(batch.Samples), batch.Samples)
	}
	for i := 1; i < len(batch.Samples); i++ {
		if batch.Samples[i].Timestamp <= batch.Samples[i-1].Timestamp {
			t.Errorf("timestamps not strictly increasing at %d: %v", i, batch.Samples)
		}
	}
	if batch.Stale != 2 {
		t.Errorf("expected 2 stale lines, got %d", batch.Stale)
	}
	if batch.LastAccepted != 30 {
		t.Errorf("LastAccepted = %v, want 30", batch.LastAccepted)
	}
}

func TestParse_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	n := New(testImageURL)
	body := []byte("1700000001,1\n1700000002,2\n")

	first := n.Parse(body, floatChan, 1700000000)
	if len(first.Samples) != 2 {
		t.Fatalf("expected 2 samples on first pass, got %d", len(first.Samples))
	}

	replay := n.Parse(body, floatChan, first.LastAccepted)
	if len(replay.Samples) != 0 {
		t.Errorf("expected no samples on replay, got %d", len(replay.Samples))
	}
	if replay.LastAccepted != first.LastAccepted {
		t.Errorf("LastAccepted moved on replay: %v", replay.LastAccepted)
	}
}

func TestParse_MalformedLines(t *testing.T) {
	t.Parallel()

	body := "nocomma\n,5\n5,\nabc,1\n1,abc\n1,NaN\n\n   \n2,2.5\n"
	batch := New(testImageURL).Parse([]byte(body), floatChan, 0)

	if batch.Malformed != 6 {
		t.Errorf("expected 6 malformed lines, got %d", batch.Malformed)
	}
	if len(batch.Samples) != 1 || batch.Samples[0].Value != 2.5 {
		t.Errorf("expected single 2.5 sample, got %+v", batch.Samples)
	}
}

func TestParse_ValueKinds(t *testing.T) {
	t.Parallel()

	n := New(testImageURL)
	tests := []struct {
		name string
		ch   models.Channel
		body string
		want any
	}{
		{"integer", intChan, "1,42", int64(42)},
		{"integer from decimal", intChan, "1,42.9", int64(42)},
		{"float", floatChan, "1,-3.25", -3.25},
		{"string keeps text", stringChan, "1,rover nominal, all green", "rover nominal, all green"},
		{"image synthesizes url", imageChan, "1700000000.5", "http://ctweb:8000/CT/cam/front.jpg?r=absolute&t=1700000000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := n.Parse([]byte(tt.body), tt.ch, 0)
			if len(batch.Samples) != 1 {
				t.Fatalf("expected 1 sample, got %d", len(batch.Samples))
			}
			if got := batch.Samples[0].Value; got != tt.want {
				t.Errorf("value = %#v, want %#v", got, tt.want)
			}
			if batch.Samples[0].ID != tt.ch.Key {
				t.Errorf("id = %q, want %q", batch.Samples[0].ID, tt.ch.Key)
			}
		})
	}
}

func TestParse_HTMLResponses(t *testing.T) {
	t.Parallel()

	n := New(testImageURL)

	notFound := n.Parse([]byte("<html><body><h2>HTTP ERROR 404</h2></body></html>"), floatChan, 7)
	if !notFound.NoData || notFound.Unexpected || len(notFound.Samples) != 0 {
		t.Errorf("expected no-data batch, got %+v", notFound)
	}
	if notFound.LastAccepted != 7 {
		t.Errorf("LastAccepted changed to %v", notFound.LastAccepted)
	}

	other := n.Parse([]byte("<HTML><body>Internal error</body></HTML>"), floatChan, 7)
	if other.NoData || !other.Unexpected || len(other.Samples) != 0 {
		t.Errorf("expected unexpected-html batch, got %+v", other)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	t.Parallel()

	batch := New(nil).Parse(nil, floatChan, 3)
	if len(batch.Samples) != 0 || batch.NoData || batch.LastAccepted != 3 {
		t.Errorf("unexpected batch %+v", batch)
	}
}

func BenchmarkParse(b *testing.B) {
	body := make([]byte, 0, 64*1000)
	for i := 0; i < 1000; i++ {
		body = fmt.Appendf(body, "%d,%d.5\n", 1700000000+i, i)
	}
	n := New(testImageURL)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Parse(body, floatChan, 0)
	}
}
