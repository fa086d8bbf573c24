// Package cache stores fetched transcripts keyed by video id and language
// so repeated requests skip the upstream round trip.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when nothing is cached for the key.
var ErrMiss = errors.New("cache miss")

// Entry is a cached transcript.
// Language is the requested language the entry is keyed by;
// ServedLanguage is the caption language the provider actually returned.
type Entry struct {
	VideoID        string    `json:"video_id"`
	Language       string    `json:"language"`
	ServedLanguage string    `json:"served_language,omitempty"`
	Title          string    `json:"title"`
	Transcript     string    `json:"transcript"`
	Strategy       string    `json:"strategy"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Cache is a transcript store.
type Cache interface {
	Get(ctx context.Context, videoID, language string) (*Entry, error)
	// Put inserts or replaces the entry for (VideoID, Language).
	Put(ctx context.Context, e Entry) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (*Entry, error) { return nil, ErrMiss }
func (Nop) Put(context.Context, Entry) error { return nil }
func (Nop) Count(context.Context) (int, error) { return 0, nil }
func (Nop) Close() error { return nil }
