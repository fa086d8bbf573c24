package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

const (
	defaultBaseURL = "https://www.youtube.com"

	androidClientVersion = "19.09.37"
	androidUserAgent     = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"
	browserUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// Watch pages are large; caption documents and player responses are not.
	maxBodySize = 8 << 20
)

var defaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// client is the HTTP plumbing shared by the scraping providers.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(httpClient *http.Client, baseURL string) client {
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return client{http: httpClient, baseURL: baseURL}
}

// do sends req and returns the body of a 200 response. Non-200 statuses are
// mapped onto transcript error kinds; what names the resource for messages.
func (c client) do(req *http.Request, what string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transcript.Internal("failed to fetch "+what, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, transcript.UpstreamFailed("rate limited by YouTube (429)")
	case resp.StatusCode == http.StatusNotFound:
		return nil, transcript.NotFound("%s not found", what)
	case resp.StatusCode != http.StatusOK:
		return nil, transcript.UpstreamFailed("%s: status %d", what, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transcript.Internal("failed to read "+what, err)
	}
	return body, nil
}

func (c client) get(ctx context.Context, url, userAgent, what string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, transcript.Internal(fmt.Sprintf("failed to create %s request", what), err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return c.do(req, what)
}
