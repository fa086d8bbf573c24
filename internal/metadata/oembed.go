package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

const defaultOEmbedURL = "https://www.youtube.com/oembed"

// OEmbed queries YouTube's oEmbed endpoint.
type OEmbed struct {
	endpoint string
	http     *http.Client
}

type oembedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
}

// NewOEmbed returns a client for endpoint, or for YouTube's public endpoint
// when none is given.
func NewOEmbed(endpoint ...string) *OEmbed {
	o := &OEmbed{endpoint: defaultOEmbedURL, http: &http.Client{Timeout: 15 * time.Second}}
	if len(endpoint) > 0 && endpoint[0] != "" {
		o.endpoint = endpoint[0]
	}
	return o
}

// Lookup fetches title, thumbnail and channel for videoURL. Missing title
// and channel name are replaced with placeholders.
func (o *OEmbed) Lookup(ctx context.Context, videoURL string) (*Video, error) {
	q := url.Values{"url": {videoURL}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, transcript.Internal("failed to create metadata request", err)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, transcript.Internal("failed to fetch video metadata", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		// oEmbed answers 401 for private and embed-disabled videos.
		return nil, transcript.Unavailable("video unavailable (oembed status %d)", resp.StatusCode)
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, transcript.NotFound("video not found (oembed status %d)", resp.StatusCode)
	default:
		return nil, transcript.Internal(fmt.Sprintf("failed to fetch video metadata: status %d", resp.StatusCode), nil)
	}

	var oe oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&oe); err != nil {
		return nil, transcript.Internal("failed to decode video metadata", err)
	}

	v := &Video{
		Title:       oe.Title,
		Thumbnail:   oe.ThumbnailURL,
		ChannelName: oe.AuthorName,
		ChannelURL:  oe.AuthorURL,
	}
	if v.Title == "" {
		v.Title = UnknownTitle
	}
	if v.ChannelName == "" {
		v.ChannelName = UnknownCreator
	}
	return v, nil
}
