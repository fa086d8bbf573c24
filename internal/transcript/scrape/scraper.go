// Package scrape implements transcript providers that read captions
// straight from YouTube: the internal player API behind the watch page, and
// the unofficial timedtext API.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

// playerResponse is the subset of the innertube player response we read.
type playerResponse struct {
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []transcript.CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status            string `json:"status"`
		Reason            string `json:"reason"`
		LiveStreamability struct {
			LiveStreamabilityRenderer struct {
				VideoID string `json:"videoId"`
			} `json:"liveStreamabilityRenderer"`
		} `json:"liveStreamability"`
	} `json:"playabilityStatus"`
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl,omitempty"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

// Scraper reads captions through the player API. The API key is taken from
// the watch page on every request since YouTube rotates it.
type Scraper struct {
	client
	logger *slog.Logger
}

// Option configures a Scraper or TimedText provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithBaseURL points the provider at a different YouTube origin.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewScraper(opts ...Option) *Scraper {
	o := buildOptions(opts)
	return &Scraper{client: newClient(o.httpClient, o.baseURL), logger: o.logger}
}

func (s *Scraper) Name() string { return "scrape" }

func (s *Scraper) Fetch(ctx context.Context, ref transcript.VideoReference) (*transcript.Result, error) {
	page, err := s.get(ctx, s.baseURL+"/watch?v="+url.QueryEscape(ref.ID)+"&hl=en", browserUserAgent, "watch page")
	if err != nil {
		return nil, err
	}

	key, err := extractAPIKey(page)
	if err != nil {
		return nil, err
	}

	pr, err := s.player(ctx, key, ref.ID)
	if err != nil {
		return nil, err
	}
	if err := checkPlayability(pr); err != nil {
		return nil, err
	}

	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, transcript.NoCaptions("no captions available for video %s", ref.ID)
	}
	track := transcript.SelectTrack(tracks, ref.Language)

	s.logger.Debug("caption track selected",
		slog.String("video_id", ref.ID),
		slog.String("requested", ref.Language),
		slog.String("language", track.LanguageCode),
		slog.String("kind", track.Kind))

	doc, err := s.get(ctx, track.BaseURL, androidUserAgent, "captions")
	if err != nil {
		return nil, err
	}

	text, entries, err := transcript.TextFromCaptions(doc)
	if err != nil {
		return nil, err
	}

	return &transcript.Result{
		Text:     text,
		Strategy: transcript.StrategyCaptionsScrape,
		Language: track.LanguageCode,
		Title:    pr.VideoDetails.Title,
		Entries:  entries,
	}, nil
}

// player calls the innertube player endpoint as the Android client, which
// reliably returns caption tracks.
func (s *Scraper) player(ctx context.Context, apiKey, videoID string) (*playerResponse, error) {
	var body playerRequest
	body.Context.Client.ClientName = "ANDROID"
	body.Context.Client.ClientVersion = androidClientVersion
	body.Context.Client.HL = "en"
	body.VideoID = videoID

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, transcript.Internal("failed to marshal player request", err)
	}

	endpoint := s.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transcript.Internal("failed to create player request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)

	raw, err := s.do(req, "player response")
	if err != nil {
		return nil, err
	}

	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, transcript.Internal("failed to parse player response", err)
	}
	return &pr, nil
}

func checkPlayability(pr *playerResponse) error {
	reason := strings.ToLower(pr.PlayabilityStatus.Reason)

	switch pr.PlayabilityStatus.Status {
	case "UNPLAYABLE":
		return transcript.Unavailable("Private video or unavailable")
	case "LOGIN_REQUIRED":
		if strings.Contains(reason, "age") {
			return transcript.Unavailable("age-restricted video")
		}
		if strings.Contains(reason, "private") {
			return transcript.Unavailable("Private video or unavailable")
		}
		return transcript.Unavailable("login required to view this video")
	case "ERROR":
		return transcript.Unavailable("video unavailable: %s", pr.PlayabilityStatus.Reason)
	}

	if pr.PlayabilityStatus.LiveStreamability.LiveStreamabilityRenderer.VideoID != "" {
		return transcript.Unavailable("live streams are not supported")
	}
	return nil
}
