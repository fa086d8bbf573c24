// Package library persists summaries the user has generated. Records are
// keyed by video id; adding an existing id replaces it and moves it to the
// front of the list.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no summary has the requested id.
var ErrNotFound = errors.New("summary not found")

// Summary is one saved record.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	ChannelName string    `json:"channelName"`
	ChannelURL  string    `json:"channelUrl"`
	Duration    string    `json:"duration"`
	ViewCount   int64     `json:"viewCount"`
	Summary     string    `json:"summary"`
	Transcript  string    `json:"transcript"`
	VideoURL    string    `json:"videoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sort orders a listing.
type Sort string

const (
	// SortRecent is insertion order, most recently added first.
	SortRecent Sort = "recent"
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortTitle  Sort = "title"
)

// ParseSort validates a sort name; empty means SortRecent.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRecent:
		return SortRecent, nil
	case SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("unknown sort %q (want recent, newest, oldest or title)", s)
}

// ListOptions filters and orders List results.
type ListOptions struct {
	// Query matches titles case-insensitively as a substring.
	Query string
	Sort  Sort
	Limit int
}

// Store is the persisted summary list.
type Store interface {
	Add(ctx context.Context, s Summary) error
	Get(ctx context.Context, id string) (*Summary, error)
	List(ctx context.Context, opts ListOptions) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

func validate(s *Summary) error {
	if s.ID == "" {
		return errors.New("summary id is required")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	// Stored timestamps sort lexically in SQLite, so keep one zone.
	s.CreatedAt = s.CreatedAt.UTC()
	return nil
}
