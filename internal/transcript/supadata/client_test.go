package supadata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

var testRef = transcript.VideoReference{
	ID:       "dQw4w9WgXcQ",
	URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	Language: "en",
}

var fastPoll = transcript.PollConfig{Interval: time.Millisecond, MaxAttempts: 20, MaxWait: 5 * time.Second}

// fakeSupadata answers the transcript endpoint with a fixed body and the
// job endpoint with a sequence of bodies.
type fakeSupadata struct {
	mu         sync.Mutex
	transcript string
	status     int
	jobs       []string
	jobCalls   int
	gotKey     string
	gotQuery   string
}

func (f *fakeSupadata) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.gotKey = r.Header.Get("x-api-key")

		switch {
		case r.URL.Path == "/youtube/transcript":
			f.gotQuery = r.URL.RawQuery
			if f.status != 0 {
				w.WriteHeader(f.status)
			}
			io.WriteString(w, f.transcript)
		case strings.HasPrefix(r.URL.Path, "/transcript/"):
			i := f.jobCalls
			if i >= len(f.jobs) {
				i = len(f.jobs) - 1
			}
			f.jobCalls++
			io.WriteString(w, f.jobs[i])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "sd-key", BaseURL: srv.URL, HTTPClient: srv.Client(), Poll: fastPoll})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() error = nil, want error for missing API key")
	}
}

func TestFetchSync(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"text", `{"text":"plain transcript","lang":"en"}`, "plain transcript"},
		{"content", `{"content":"from content","lang":"en"}`, "from content"},
		{"transcript", `{"transcript":"from transcript"}`, "from transcript"},
		{"data text", `{"data":{"text":"from data"}}`, "from data"},
		{"text beats job id", `{"text":"direct","jobId":"job-1"}`, "direct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSupadata{transcript: tt.body, jobs: []string{`{"status":"failed","error":"should not poll"}`}}
			c := newTestClient(t, f.server(t))

			got, err := c.Fetch(context.Background(), testRef)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
			if got.Strategy != transcript.StrategyThirdPartySync {
				t.Errorf("Strategy = %v, want %v", got.Strategy, transcript.StrategyThirdPartySync)
			}
			if f.jobCalls != 0 {
				t.Errorf("job endpoint called %d times, want 0", f.jobCalls)
			}
			if f.gotKey != "sd-key" {
				t.Errorf("x-api-key = %q, want %q", f.gotKey, "sd-key")
			}
			if !strings.Contains(f.gotQuery, "text=true") || !strings.Contains(f.gotQuery, "lang=en") {
				t.Errorf("query = %q, want text=true and lang=en", f.gotQuery)
			}
		})
	}
}

func TestFetchJob(t *testing.T) {
	f := &fakeSupadata{
		transcript: `{"jobId":"job-42"}`,
		status:     http.StatusAccepted,
		jobs: []string{
			`{"status":"queued"}`,
			`{"status":"active"}`,
			`{"status":"completed","content":"hello world","lang":"en"}`,
		},
	}
	c := newTestClient(t, f.server(t))

	got, err := c.Fetch(context.Background(), testRef)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Text != "hello world" {
		t.Errorf("Text = %q, want %q", got.Text, "hello world")
	}
	if got.Strategy != transcript.StrategyThirdPartyJob {
		t.Errorf("Strategy = %v, want %v", got.Strategy, transcript.StrategyThirdPartyJob)
	}
	if f.jobCalls != 3 {
		t.Errorf("job endpoint called %d times, want 3", f.jobCalls)
	}
}

func TestFetchJobFailed(t *testing.T) {
	f := &fakeSupadata{
		transcript: `{"jobId":"job-42"}`,
		jobs:       []string{`{"status":"active"}`, `{"status":"failed","error":"quota exceeded"}`},
	}
	c := newTestClient(t, f.server(t))

	_, err := c.Fetch(context.Background(), testRef)
	if transcript.KindOf(err) != transcript.KindUpstreamFailed {
		t.Fatalf("Fetch() error = %v, want upstream failure", err)
	}
	if err.Error() != "quota exceeded" {
		t.Errorf("Fetch() error = %q, want %q", err.Error(), "quota exceeded")
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind transcript.Kind
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, `{"error":"not-found","message":"No transcript available"}`, transcript.KindNotFound, "No transcript available"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized","message":"Invalid API key"}`, transcript.KindUpstreamFailed, "Invalid API key"},
		{"rate limited", http.StatusTooManyRequests, `{"error":"limit-exceeded"}`, transcript.KindUpstreamFailed, "limit-exceeded"},
		{"server error with text body", http.StatusBadGateway, `bad gateway`, transcript.KindUpstreamFailed, "bad gateway"},
		{"empty shape", http.StatusOK, `{"lang":"en"}`, transcript.KindNotFound, ""},
		{"not json", http.StatusOK, `<html>`, transcript.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSupadata{transcript: tt.body, status: tt.status}
			c := newTestClient(t, f.server(t))

			_, err := c.Fetch(context.Background(), testRef)
			if got := transcript.KindOf(err); got != tt.wantKind {
				t.Fatalf("Fetch() error = %v, want kind %v", err, tt.wantKind)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Fetch() error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
