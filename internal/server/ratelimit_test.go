package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/config"
	"github.com/alrobwilloliver/ytdigest/internal/logging"
)

const testBurst = 5

func TestRateLimiter(t *testing.T) {
	limiter := newIPRateLimiter(30, testBurst)
	ip := "192.168.1.100"

	for i := 0; i < testBurst; i++ {
		if !limiter.allow(ip) {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}

	if limiter.allow(ip) {
		t.Error("request after burst should be rate limited")
	}
}

func TestRateLimiterDifferentIPs(t *testing.T) {
	limiter := newIPRateLimiter(30, testBurst)
	ip1 := "192.168.1.1"
	ip2 := "192.168.1.2"

	for i := 0; i < testBurst; i++ {
		limiter.allow(ip1)
	}

	if limiter.allow(ip1) {
		t.Error("ip1 should be rate limited")
	}
	if !limiter.allow(ip2) {
		t.Error("ip2 should be allowed (separate limiter)")
	}
}

func TestRateLimiterPrune(t *testing.T) {
	limiter := newIPRateLimiter(30, testBurst)
	limiter.allow("10.0.0.1")
	limiter.allow("10.0.0.2")

	limiter.prune(time.Now().Add(time.Minute))

	if n := len(limiter.limiters); n != 0 {
		t.Errorf("limiters after prune = %d, want 0", n)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		wantIP     string
	}{
		{
			name:       "from RemoteAddr with port",
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "192.168.1.1",
		},
		{
			name:       "from X-Forwarded-For single",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			wantIP:     "203.0.113.50",
		},
		{
			name:       "from X-Forwarded-For multiple",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18, 150.172.238.178"},
			wantIP:     "203.0.113.50",
		},
		{
			name:       "from X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "203.0.113.99"},
			wantIP:     "203.0.113.99",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.50",
				"X-Real-IP":       "203.0.113.99",
			},
			wantIP: "203.0.113.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.wantIP {
				t.Errorf("getClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := New(&fakeDigester{}, nil, config.ServerConfig{RatePerMinute: 30, RateBurst: testBurst}, logging.Discard())

	handler := s.rateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < testBurst; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.168.1.50:12345"
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.50:12345"
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("rate limited request: got status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2 at 30 requests per minute", got)
	}
}
