package scrape

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

// TimedText reads captions from the unofficial api/timedtext endpoint,
// which lists a video's tracks and serves each as XML without needing an
// API key.
type TimedText struct {
	client
	logger *slog.Logger
}

type trackList struct {
	Tracks []struct {
		LangCode string `xml:"lang_code,attr"`
		Name     string `xml:"name,attr"`
		Kind     string `xml:"kind,attr"`
	} `xml:"track"`
}

func NewTimedText(opts ...Option) *TimedText {
	o := buildOptions(opts)
	return &TimedText{client: newClient(o.httpClient, o.baseURL), logger: o.logger}
}

func (t *TimedText) Name() string { return "timedtext" }

func (t *TimedText) Fetch(ctx context.Context, ref transcript.VideoReference) (*transcript.Result, error) {
	q := url.Values{"type": {"list"}, "v": {ref.ID}}
	raw, err := t.get(ctx, t.baseURL+"/api/timedtext?"+q.Encode(), browserUserAgent, "caption list")
	if err != nil {
		return nil, err
	}

	var list trackList
	if len(raw) > 0 {
		if err := xml.Unmarshal(raw, &list); err != nil {
			return nil, transcript.Internal("failed to parse caption list", err)
		}
	}
	if len(list.Tracks) == 0 {
		return nil, transcript.NoCaptions("no captions available for video %s", ref.ID)
	}

	tracks := make([]transcript.CaptionTrack, len(list.Tracks))
	for i, lt := range list.Tracks {
		params := url.Values{"v": {ref.ID}, "lang": {lt.LangCode}}
		if lt.Name != "" {
			params.Set("name", lt.Name)
		}
		if lt.Kind != "" {
			params.Set("kind", lt.Kind)
		}
		tracks[i] = transcript.CaptionTrack{
			BaseURL:      t.baseURL + "/api/timedtext?" + params.Encode(),
			LanguageCode: lt.LangCode,
			Kind:         lt.Kind,
		}
	}
	track := transcript.SelectTrack(tracks, ref.Language)

	t.logger.Debug("caption track selected",
		slog.String("video_id", ref.ID),
		slog.String("requested", ref.Language),
		slog.String("language", track.LanguageCode))

	doc, err := t.get(ctx, track.BaseURL, browserUserAgent, "captions")
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
		Entries:  entries,
	}, nil
}
