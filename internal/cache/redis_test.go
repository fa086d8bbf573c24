//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// Run with: YTDIGEST_TEST_REDIS_URL=redis://localhost:6379/15 go test -tags=integration ./internal/cache
func TestRedisCache(t *testing.T) {
	url := os.Getenv("YTDIGEST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("YTDIGEST_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := OpenRedis(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	defer c.Close()
	t.Cleanup(func() { c.rdb.Del(ctx, redisKey("it-video", "en")) })

	if _, err := c.Get(ctx, "it-video", "en"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() before Put error = %v, want ErrMiss", err)
	}

	if err := c.Put(ctx, Entry{VideoID: "it-video", Language: "en", Title: "T", Transcript: "hello"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	e, err := c.Get(ctx, "it-video", "en")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Transcript != "hello" || e.Title != "T" {
		t.Errorf("Get() = %+v", e)
	}

	n, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n < 1 {
		t.Errorf("Count() = %d, want >= 1", n)
	}
}
