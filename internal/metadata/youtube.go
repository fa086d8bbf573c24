package metadata

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// DataAPI reads duration and view count from the YouTube Data API v3.
type DataAPI struct {
	svc *youtube.Service
}

// NewDataAPI creates a Data API client authenticated with an API key.
// Extra client options (endpoint, HTTP client) are passed through.
func NewDataAPI(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPI, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &DataAPI{svc: svc}, nil
}

func (d *DataAPI) Stats(ctx context.Context, videoID string) (*Stats, error) {
	resp, err := d.svc.Videos.List([]string{"contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	st := &Stats{}
	if item.ContentDetails != nil {
		st.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		st.ViewCount = int64(item.Statistics.ViewCount)
	}
	return st, nil
}
