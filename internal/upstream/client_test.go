// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/models"
)

func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

const notFoundPage = "<html>\n<head><title>Error 404</title></head>\n<body><h2>HTTP ERROR 404</h2></body>\n</html>\n"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:       server.URL + "/",
		ArchivePath:   "/CT/",
		WindowSeconds: 100000000,
		Timeout:       5 * time.Second,
	})
}

func TestNewClient_NormalizesPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		baseURL     string
		archivePath string
		wantImage   string
	}{
		{"trailing slashes", "http://ctweb:8000/", "/CT/", "http://ctweb:8000/CT/src/cam.jpg?r=absolute&t=1700000000.5"},
		{"bare archive", "http://ctweb:8000", "CT", "http://ctweb:8000/CT/src/cam.jpg?r=absolute&t=1700000000.5"},
		{"root archive", "http://ctweb:8000", "/", "http://ctweb:8000/src/cam.jpg?r=absolute&t=1700000000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{BaseURL: tt.baseURL, ArchivePath: tt.archivePath})
			if got := c.ImageURL("src/cam.jpg", 1700000000.5); got != tt.wantImage {
				t.Errorf("ImageURL() = %q, want %q", got, tt.wantImage)
			}
		})
	}
}

func TestClient_FetchSince(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/CT/rover/imu/c0.i32" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.RawQuery != "r=absolute&d=100000000&t=1700000000.001" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("1700000001,42\n1700000002,43\n"))
	})

	ch := models.Channel{Key: "rover/imu/c0.i32", Kind: models.KindInteger}
	body, err := client.FetchSince(context.Background(), ch, 1700000000.001)
	if err != nil {
		t.Fatalf("FetchSince() error: %v", err)
	}

	if string(body) != "1700000001,42\n1700000002,43\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestClient_FetchSince_ImageRequestsTimestampsOnly(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "r=absolute&d=100000000&t=5&f=t" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("1700000001\n"))
	})

	ch := models.Channel{Key: "cam/front.jpg", Kind: models.KindImage}
	if _, err := client.FetchSince(context.Background(), ch, 5); err != nil {
		t.Fatalf("FetchSince() error: %v", err)
	}
}

func TestClient_FetchSince_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found is no new data", http.StatusNotFound, notFoundPage, ErrNoNewData},
		{"server error", http.StatusInternalServerError, "boom", ErrUnexpectedStatus},
		{"forbidden", http.StatusForbidden, "", ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchSince(context.Background(), models.Channel{Key: "src/c0", Kind: models.KindFloat}, 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_FetchSince_ContextCanceled(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1,1\n"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.FetchSince(ctx, models.Channel{Key: "src/c0"}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/CT/my source/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte("<html><body><a href=\"../\">..</a></body></html>"))
	})

	body, err := client.List(context.Background(), "/CT/my source/")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected listing body")
	}
}
