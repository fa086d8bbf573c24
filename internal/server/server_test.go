package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/config"
	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/library"
	"github.com/alrobwilloliver/ytdigest/internal/logging"
	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

type fakeDigester struct {
	err        error
	cacheErr   error
	cached     bool
	gotURL     string
	gotLang    string
	summarized bool
}

func (f *fakeDigester) response(rawURL, lang string) (*digest.Response, error) {
	f.gotURL, f.gotLang = rawURL, lang
	if f.err != nil {
		return nil, f.err
	}
	return &digest.Response{
		VideoID:     "dQw4w9WgXcQ",
		Title:       "Never Gonna Give You Up",
		ChannelName: "Rick Astley",
		Duration:    "3m 33s",
		ViewCount:   42,
		Language:    lang,
		Text:        "never gonna give you up",
		Cached:      f.cached,
	}, nil
}

func (f *fakeDigester) Summarize(ctx context.Context, rawURL, lang string) (*digest.Response, error) {
	resp, err := f.response(rawURL, lang)
	if err != nil {
		return nil, err
	}
	f.summarized = true
	resp.Summary = `{"overview":"A classic."}`
	return resp, nil
}

func (f *fakeDigester) Transcript(ctx context.Context, rawURL, lang string) (*digest.Response, error) {
	return f.response(rawURL, lang)
}

func (f *fakeDigester) CacheEntries(ctx context.Context) (int, error) {
	return 3, f.cacheErr
}

var testConfig = config.ServerConfig{RatePerMinute: 600, RateBurst: 100, MaxBodyBytes: 1024}

func newTestServer(t *testing.T, d Digester, cfg config.ServerConfig) (*Server, library.Store) {
	t.Helper()
	lib, err := library.OpenSQLite(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return New(d, lib, cfg, logging.Discard()), lib
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeDigester{}, testConfig)

	w := do(t, s.Handler(), "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.CacheEntries != 3 {
		t.Errorf("cache_entries = %d, want 3", resp.CacheEntries)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("uptime should be >= 0, got %d", resp.UptimeSeconds)
	}
}

func TestHealthEndpointDegraded(t *testing.T) {
	s, _ := newTestServer(t, &fakeDigester{}, testConfig)
	s.lastSuccess.Store(time.Now().Add(-2 * time.Hour).UnixNano())

	w := do(t, s.Handler(), "GET", "/health", "")

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want %q (last success > 1 hour ago)", resp.Status, "degraded")
	}
	if resp.LastSuccess == "" {
		t.Error("last_success should be reported")
	}
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	s, _ := newTestServer(t, &fakeDigester{cacheErr: context.DeadlineExceeded}, testConfig)

	w := do(t, s.Handler(), "GET", "/health", "")

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "unhealthy" || resp.CacheEntries != 0 {
		t.Errorf("resp = %+v, want unhealthy with 0 entries", resp)
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantLang string
	}{
		{"GET with query", "GET", "/api/summarize?url=https://youtu.be/dQw4w9WgXcQ", "", "en"},
		{"GET with language", "GET", "/api/summarize?url=https://youtu.be/dQw4w9WgXcQ&language=es", "", "es"},
		{"POST json", "POST", "/api/summarize", `{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "language": "de"}`, "de"},
		{"POST json without language", "POST", "/api/summarize", `{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDigester{}
			s, _ := newTestServer(t, d, testConfig)

			w := do(t, s.Handler(), tt.method, tt.target, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
			}

			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, field := range []string{"videoId", "title", "thumbnail", "channelName", "channelUrl", "duration", "viewCount", "language", "text", "summary"} {
				if _, ok := resp[field]; !ok {
					t.Errorf("response missing %q", field)
				}
			}
			if d.gotLang != tt.wantLang {
				t.Errorf("language = %q, want %q", d.gotLang, tt.wantLang)
			}
			if !d.summarized {
				t.Error("Summarize was not called")
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("response should carry X-Request-ID")
			}
		})
	}
}

func TestTranscriptEndpointCacheHit(t *testing.T) {
	d := &fakeDigester{cached: true}
	s, _ := newTestServer(t, d, testConfig)

	w := do(t, s.Handler(), "POST", "/api/transcript", `{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "language": "en"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var resp digest.Response
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.VideoID != "dQw4w9WgXcQ" || resp.Text != "never gonna give you up" {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.Cached {
		t.Error("cached should be true for cache hit")
	}
	if resp.Summary != "" || d.summarized {
		t.Error("transcript endpoint must not summarise")
	}
	if s.lastSuccess.Load() == 0 {
		t.Error("successful request should update last success")
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", "POST", "/api/transcript", "not json", http.StatusBadRequest, codeInvalidRequest},
		{"missing url in body", "POST", "/api/transcript", `{"language": "en"}`, http.StatusBadRequest, string(transcript.KindInvalidURL)},
		{"missing url query", "GET", "/api/summarize", "", http.StatusBadRequest, string(transcript.KindInvalidURL)},
		{"non-youtube url", "GET", "/api/summarize?url=https://example.com/not-youtube", "", http.StatusBadRequest, string(transcript.KindInvalidURL)},
		{"body too large", "POST", "/api/summarize", `{"url": "` + strings.Repeat("a", 2048) + `"}`, http.StatusBadRequest, codeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDigester{}
			s, _ := newTestServer(t, d, testConfig)

			w := do(t, s.Handler(), tt.method, tt.target, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if resp := decodeError(t, w); resp.Code != tt.wantCode || resp.Error == "" {
				t.Errorf("error body = %+v, want code %q", resp, tt.wantCode)
			}
			if d.gotURL != "" {
				t.Error("digest should not run for a rejected request")
			}
		})
	}
}

func TestDigestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{transcript.NoCaptions("no captions available for this video"), http.StatusNotFound},
		{transcript.NotFound("transcript not found"), http.StatusNotFound},
		{transcript.Unavailable("Private video or unavailable"), http.StatusNotFound},
		{transcript.UpstreamFailed("quota exceeded"), http.StatusInternalServerError},
		{transcript.Internal("failed to fetch video metadata", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(transcript.KindOf(tt.err)), func(t *testing.T) {
			s, _ := newTestServer(t, &fakeDigester{err: tt.err}, testConfig)

			w := do(t, s.Handler(), "GET", "/api/summarize?url=https://youtu.be/dQw4w9WgXcQ", "")
			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}

			resp := decodeError(t, w)
			if resp.Code != string(transcript.KindOf(tt.err)) {
				t.Errorf("code = %q, want %q", resp.Code, transcript.KindOf(tt.err))
			}
			if resp.Error != transcript.UserMessage(tt.err) {
				t.Errorf("error = %q, want user message", resp.Error)
			}
			if resp.VideoID != "dQw4w9WgXcQ" {
				t.Errorf("videoId = %q", resp.VideoID)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	apiKey := "test-secret-key"
	cfg := testConfig
	cfg.APIKey = apiKey
	s, _ := newTestServer(t, &fakeDigester{}, cfg)
	h := s.Handler()

	tests := []struct {
		name       string
		header     string
		headerVal  string
		wantStatus int
	}{
		{"no auth header", "", "", http.StatusUnauthorized},
		{"wrong api key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"basic auth is not bearer", "Authorization", "Basic " + apiKey, http.StatusUnauthorized},
		{"correct X-API-Key", "X-API-Key", apiKey, http.StatusOK},
		{"correct Bearer token", "Authorization", "Bearer " + apiKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/transcript?url=https://youtu.be/dQw4w9WgXcQ", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.headerVal)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	// Health stays open.
	if w := do(t, h, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health with auth enabled = %d, want 200", w.Code)
	}
}

func TestSummariesEndpoints(t *testing.T) {
	ctx := context.Background()
	s, lib := newTestServer(t, &fakeDigester{}, testConfig)
	h := s.Handler()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	lib.Add(ctx, library.Summary{ID: "a", Title: "Go Testing", Summary: "s", Transcript: "t", VideoURL: "https://youtu.be/a", CreatedAt: base})
	lib.Add(ctx, library.Summary{ID: "b", Title: "Cooking", Summary: "s", Transcript: "t", VideoURL: "https://youtu.be/b", CreatedAt: base.Add(time.Hour)})

	w := do(t, h, "GET", "/api/summaries", "")
	var list summaryList
	json.NewDecoder(w.Body).Decode(&list)
	if w.Code != http.StatusOK || list.Count != 2 || list.Summaries[0].ID != "b" {
		t.Fatalf("list = %d %+v", w.Code, list)
	}

	w = do(t, h, "GET", "/api/summaries?q=go&sort=oldest", "")
	list = summaryList{}
	json.NewDecoder(w.Body).Decode(&list)
	if list.Count != 1 || list.Summaries[0].ID != "a" {
		t.Errorf("search = %+v", list)
	}

	if w := do(t, h, "GET", "/api/summaries?sort=views", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", w.Code)
	}
	if w := do(t, h, "GET", "/api/summaries?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", w.Code)
	}

	w = do(t, h, "GET", "/api/summaries/a", "")
	var got library.Summary
	json.NewDecoder(w.Body).Decode(&got)
	if w.Code != http.StatusOK || got.Title != "Go Testing" {
		t.Errorf("get = %d %+v", w.Code, got)
	}

	if w := do(t, h, "DELETE", "/api/summaries/a", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(t, h, "DELETE", "/api/summaries/a", ""); w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
	if w := do(t, h, "GET", "/api/summaries/a", ""); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}

	if w := do(t, h, "DELETE", "/api/summaries", ""); w.Code != http.StatusNoContent {
		t.Errorf("clear = %d, want 204", w.Code)
	}
	w = do(t, h, "GET", "/api/summaries", "")
	list = summaryList{}
	json.NewDecoder(w.Body).Decode(&list)
	if list.Count != 0 || list.Summaries == nil {
		t.Errorf("after clear = %+v, want empty non-null list", list)
	}
}

func TestSummariesRoutesNeedLibrary(t *testing.T) {
	s := New(&fakeDigester{}, nil, testConfig, logging.Discard())

	if w := do(t, s.Handler(), "GET", "/api/summaries", ""); w.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404 without a library", w.Code)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	cfg := testConfig
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	s := New(&fakeDigester{}, nil, cfg, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
