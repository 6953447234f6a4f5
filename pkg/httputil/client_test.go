package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/annograph/pkg/observability"
)

func TestMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"application/ld+json", "application/ld+json"},
		{"application/ld+json; charset=utf-8", "application/ld+json"},
		{"  text/turtle ;q=0.9", "text/turtle"},
		{"Application/LD+JSON", "Application/LD+JSON"},
		{"", ""},
		{";", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := MediaType(tt.in); got != tt.want {
				t.Errorf("MediaType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsSuccess(t *testing.T) {
	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 301: false, 404: false} {
		if got := IsSuccess(code); got != want {
			t.Errorf("IsSuccess(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := NewClient(time.Second, "annograph/test")
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	resp.Body.Close()
	if got != "annograph/test" {
		t.Errorf("User-Agent = %q, want %q", got, "annograph/test")
	}
}

func TestClientEmitsHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetHTTPHooks(h)
	defer observability.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	c := NewClient(time.Second, "")
	resp, err := c.Head(srv.URL + "/probe")
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	resp.Body.Close()
	srv.Close()

	if _, err := c.Get(srv.URL); err == nil {
		t.Fatal("expected error after server close")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.requests != 2 {
		t.Errorf("requests = %d, want 2", h.requests)
	}
	if h.lastStatus != http.StatusTeapot || h.lastPath != "/probe" {
		t.Errorf("response = %d %q, want 418 /probe", h.lastStatus, h.lastPath)
	}
	if h.errors != 1 {
		t.Errorf("errors = %d, want 1", h.errors)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu         sync.Mutex
	requests   int
	errors     int
	lastStatus int
	lastPath   string
}

func (h *recordingHooks) OnRequest(context.Context, string, string, string) {
	h.mu.Lock()
	h.requests++
	h.mu.Unlock()
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _, path string, status int, _ time.Duration) {
	h.mu.Lock()
	h.lastStatus, h.lastPath = status, path
	h.mu.Unlock()
}

func (h *recordingHooks) OnError(context.Context, string, string, string, error) {
	h.mu.Lock()
	h.errors++
	h.mu.Unlock()
}
