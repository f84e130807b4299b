// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestKind_ZeroValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want any
	}{
		{KindInteger, int64(0)},
		{KindFloat, float64(0)},
		{KindString, ""},
		{KindImage, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.ZeroValue(); got != tt.want {
				t.Errorf("ZeroValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestKind_Valid(t *testing.T) {
	t.Parallel()

	if !KindImage.Valid() {
		t.Error("image should be valid")
	}
	if Kind("binary").Valid() {
		t.Error("binary should not be valid")
	}
}

func TestSample_WireShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Sample{Timestamp: 1700000000000, Value: 0.5, ID: "audio/mic.wav"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"timestamp":1700000000000,"value":0.5,"id":"audio/mic.wav"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
