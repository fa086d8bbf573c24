// Package digest runs the end-to-end flow: resolve a URL, look up video
// details, obtain the transcript (cache first), summarise it and save the
// result to the library.
package digest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/cache"
	"github.com/alrobwilloliver/ytdigest/internal/library"
	"github.com/alrobwilloliver/ytdigest/internal/metadata"
	"github.com/alrobwilloliver/ytdigest/internal/summarize"
	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

// MetadataFetcher looks up display details for a video.
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoURL, videoID string) (*metadata.Video, error)
}

// Response is what a successful request returns. Nothing partial is ever
// returned: any failure yields an error instead.
type Response struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	ChannelName string `json:"channelName"`
	ChannelURL  string `json:"channelUrl"`
	Duration    string `json:"duration"`
	ViewCount   int64  `json:"viewCount"`
	Language    string `json:"language"`
	Text        string `json:"text"`
	Summary     string `json:"summary,omitempty"`
	Strategy    string `json:"strategy"`
	Cached      bool   `json:"cached"`
}

// Service wires the pipeline stages. Cache and Library may be nil; a nil
// Library means results are not saved.
type Service struct {
	Provider   transcript.Provider
	Metadata   MetadataFetcher
	Cache      cache.Cache
	Summarizer summarize.Summarizer
	Library    library.Store
	Logger     *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Transcript resolves rawURL and returns the transcript with video details,
// without summarising.
func (s *Service) Transcript(ctx context.Context, rawURL, lang string) (*Response, error) {
	ref, err := transcript.Resolve(rawURL, lang)
	if err != nil {
		return nil, err
	}

	meta, err := s.Metadata.Fetch(ctx, ref.WatchURL(), ref.ID)
	if err != nil {
		return nil, err
	}

	entry, cached, err := s.transcript(ctx, ref, meta.Title)
	if err != nil {
		return nil, err
	}

	return &Response{
		VideoID:     ref.ID,
		Title:       meta.Title,
		Thumbnail:   meta.Thumbnail,
		ChannelName: meta.ChannelName,
		ChannelURL:  meta.ChannelURL,
		Duration:    meta.Duration,
		ViewCount:   meta.ViewCount,
		Language:    entry.Language,
		Text:        entry.Transcript,
		Strategy:    entry.Strategy,
		Cached:      cached,
	}, nil
}

// Summarize runs the full pipeline for rawURL and saves the summary to the
// library when one is configured.
func (s *Service) Summarize(ctx context.Context, rawURL, lang string) (*Response, error) {
	if s.Summarizer == nil {
		return nil, transcript.Internal("no summarizer configured", nil)
	}

	resp, err := s.Transcript(ctx, rawURL, lang)
	if err != nil {
		return nil, err
	}

	logger := s.logger()
	logger.Debug("starting summarization",
		slog.String("video_id", resp.VideoID),
		slog.Int("transcript_len", len(resp.Text)))

	summary, err := s.Summarizer.Summarize(ctx, resp.Title, resp.Text)
	if err != nil {
		return nil, &transcript.Error{Kind: transcript.KindUpstreamFailed, Msg: "failed to generate summary", Err: err}
	}
	resp.Summary = summary

	if s.Library != nil {
		err := s.Library.Add(ctx, library.Summary{
			ID:          resp.VideoID,
			Title:       resp.Title,
			Thumbnail:   resp.Thumbnail,
			ChannelName: resp.ChannelName,
			ChannelURL:  resp.ChannelURL,
			Duration:    resp.Duration,
			ViewCount:   resp.ViewCount,
			Summary:     resp.Summary,
			Transcript:  resp.Text,
			VideoURL:    rawURL,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return nil, transcript.Internal("failed to save summary", err)
		}
	}

	return resp, nil
}

// transcript returns the cached entry for ref or fetches and caches it.
func (s *Service) transcript(ctx context.Context, ref transcript.VideoReference, title string) (*cache.Entry, bool, error) {
	logger := s.logger()

	if s.Cache != nil {
		entry, err := s.Cache.Get(ctx, ref.ID, ref.Language)
		switch {
		case err == nil:
			logger.Debug("cache hit", slog.String("video_id", ref.ID), slog.String("language", ref.Language))
			if entry.ServedLanguage != "" {
				entry.Language = entry.ServedLanguage
			}
			return entry, true, nil
		case !errors.Is(err, cache.ErrMiss):
			logger.Warn("cache read failed", slog.String("video_id", ref.ID), slog.String("error", err.Error()))
		}
	}

	if s.Provider == nil {
		return nil, false, transcript.Internal("no transcript provider configured", nil)
	}

	logger.Debug("fetching transcript",
		slog.String("video_id", ref.ID),
		slog.String("provider", s.Provider.Name()))

	result, err := s.Provider.Fetch(ctx, ref)
	if err != nil {
		logger.Warn("fetch failed",
			slog.String("video_id", ref.ID),
			slog.String("kind", string(transcript.KindOf(err))),
			slog.String("error", err.Error()))
		return nil, false, err
	}

	lang := result.Language
	if lang == "" {
		lang = ref.Language
	}
	if result.Title != "" && title == metadata.UnknownTitle {
		title = result.Title
	}

	entry := &cache.Entry{
		VideoID:        ref.ID,
		Language:       ref.Language,
		ServedLanguage: lang,
		Title:          title,
		Transcript:     result.Text,
		Strategy:       string(result.Strategy),
		FetchedAt:      time.Now().UTC(),
	}

	if s.Cache != nil {
		if err := s.Cache.Put(ctx, *entry); err != nil {
			logger.Warn("failed to cache transcript", slog.String("video_id", ref.ID), slog.String("error", err.Error()))
		}
	}

	// Keyed by the requested language; report the one actually served.
	entry.Language = lang
	return entry, false, nil
}

// CacheEntries reports how many transcripts are cached.
func (s *Service) CacheEntries(ctx context.Context) (int, error) {
	if s.Cache == nil {
		return 0, nil
	}
	return s.Cache.Count(ctx)
}
