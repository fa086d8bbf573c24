// Package metadata looks up the display details of a video: title and
// channel from oEmbed, duration and view count from the YouTube Data API.
package metadata

import (
	"context"
	"log/slog"
)

const (
	UnknownTitle    = "Unknown Title"
	UnknownCreator  = "Unknown Creator"
	UnknownDuration = "Unknown"
)

// Video is everything shown next to a summary.
type Video struct {
	Title       string
	Thumbnail   string
	ChannelName string
	ChannelURL  string
	Duration    string
	ViewCount   int64
}

// Stats is the numeric metadata of a video.
type Stats struct {
	// Duration is the raw ISO-8601 token, e.g. PT4M13S.
	Duration  string
	ViewCount int64
}

// StatsProvider returns numeric metadata keyed by video id.
type StatsProvider interface {
	Stats(ctx context.Context, videoID string) (*Stats, error)
}

// Fetcher combines the oEmbed lookup with an optional StatsProvider.
type Fetcher struct {
	OEmbed *OEmbed
	Stats  StatsProvider
	Logger *slog.Logger
}

// Fetch returns metadata for the video. oEmbed failures are returned;
// stats failures are logged and leave the defaults in place.
func (f *Fetcher) Fetch(ctx context.Context, videoURL, videoID string) (*Video, error) {
	oe := f.OEmbed
	if oe == nil {
		oe = NewOEmbed()
	}

	v, err := oe.Lookup(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	v.Duration = UnknownDuration

	if f.Stats == nil {
		return v, nil
	}

	st, err := f.Stats.Stats(ctx, videoID)
	if err != nil {
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("video stats lookup failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return v, nil
	}
	if st.Duration != "" {
		v.Duration = FormatDuration(st.Duration)
	}
	v.ViewCount = st.ViewCount
	return v, nil
}
