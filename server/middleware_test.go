package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labelcheck/labelcheck-api/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"health endpoint", "/health", 5},
		{"metrics endpoint", "/metrics", 5},
		{"full check", "/v1/check/full", 100},
		{"dosage check", "/v1/check/dosage", 50},
		{"compliance check", "/v1/check/compliance", 50},
		{"unknown path", "/unknown", 20},
		{"root path", "/", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := getTokenCost(req); got != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.expectedCost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{"single forwarded IP", "203.0.113.1", "192.168.1.1:12345", "203.0.113.1"},
		{"forwarded chain takes first", "203.0.113.1, 10.0.0.2", "192.168.1.1:12345", "203.0.113.1"},
		{"no header keeps remote addr", "", "192.168.1.1:12345", "192.168.1.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			var seen string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.expected {
				t.Errorf("RemoteAddr = %q, want %q", seen, tt.expected)
			}
		})
	}
}

func TestRequestSizeMiddlewareBodyTooLarge(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 100, MaxHeaderSize: 8192}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/check/full", strings.NewReader(strings.Repeat("x", 200)))
	req.Header.Set("Content-Length", "200")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

func TestRequestSizeMiddlewareHeadersTooLarge(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1 << 20, MaxHeaderSize: 64}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Padding", strings.Repeat("y", 200))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("status = %d, want 431", rr.Code)
	}
}

func TestRequestSizeMiddlewarePassesNormalRequest(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1 << 20, MaxHeaderSize: 8192}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/check/full", strings.NewReader(`{"ingredients":[]}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestRateLimiterExhaustion(t *testing.T) {
	rl := NewRateLimiter()
	bucket := rl.getBucket("198.51.100.7")

	// Fresh bucket starts with full capacity.
	taken := bucket.TakeAvailable(1000)
	if taken != 1000 {
		t.Fatalf("expected the full bucket, took %d", taken)
	}
	if got := bucket.TakeAvailable(100); got != 0 {
		t.Errorf("drained bucket must yield nothing, got %d", got)
	}
}

func TestRateLimitHandlerBlocksWhenDrained(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/check/full", nil)
	req.RemoteAddr = "198.51.100.99"

	// Drain the address's bucket, then the next request must be rejected.
	globalRateLimiter.getBucket(req.RemoteAddr).TakeAvailable(1000)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
	}
}
