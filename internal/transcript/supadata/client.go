// Package supadata is a transcript provider backed by the Supadata API.
// Short videos are answered synchronously; long ones come back as a job id
// that is polled through the shared transcript.Normalizer.
package supadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

const DefaultBaseURL = "https://api.supadata.ai/v1"

const maxResponseSize = 16 << 20

// Config configures the client. APIKey is required.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Poll       transcript.PollConfig
	Logger     *slog.Logger
}

// Client implements transcript.Provider and transcript.JobFetcher.
type Client struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	normalizer *transcript.Normalizer
	logger     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supadata: API key is required (set SUPADATA_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	c.normalizer = &transcript.Normalizer{Jobs: c, Poll: cfg.Poll, Logger: cfg.Logger}
	return c, nil
}

func (c *Client) Name() string { return "supadata" }

func (c *Client) Fetch(ctx context.Context, ref transcript.VideoReference) (*transcript.Result, error) {
	q := url.Values{
		"url":  {ref.URL},
		"lang": {ref.Language},
		"text": {"true"},
	}
	raw, err := c.get(ctx, "/youtube/transcript?"+q.Encode())
	if err != nil {
		return nil, err
	}

	resp, err := transcript.DecodeUpstream(raw)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("supadata response decoded",
		slog.String("video_id", ref.ID),
		slog.String("shape", resp.Kind.String()))

	result, err := c.normalizer.Normalize(ctx, resp)
	if err != nil {
		return nil, err
	}
	result.Language = ref.Language
	return result, nil
}

// JobStatus fetches the state of an asynchronous transcript job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*transcript.JobStatus, error) {
	raw, err := c.get(ctx, "/transcript/"+url.PathEscape(jobID))
	if err != nil {
		return nil, err
	}
	return transcript.DecodeJobStatus(raw)
}

// apiError is the error body Supadata sends with non-2xx responses.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, transcript.Internal("supadata: failed to create request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transcript.Internal("supadata: request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transcript.Internal("supadata: failed to read response", err)
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return body, nil
	}

	msg := errorMessage(body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, transcript.NotFound("supadata: %s", msg)
	}
	return nil, transcript.UpstreamFailed("supadata: status %d: %s", resp.StatusCode, msg)
}

func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		for _, s := range []string{e.Message, e.Details, e.Error} {
			if s != "" {
				return s
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "no error body"
	}
	return s
}
