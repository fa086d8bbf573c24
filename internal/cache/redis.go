package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ytdigest:transcript:"

// Redis is a Cache shared between server instances. Entries expire after
// the configured TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// OpenRedis connects to redisURL (redis://...) and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return NewRedis(rdb, ttl), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(videoID, language string) string {
	return redisKeyPrefix + videoID + ":" + language
}

func (r *Redis) Get(ctx context.Context, videoID, language string) (*Entry, error) {
	data, err := r.rdb.Get(ctx, redisKey(videoID, language)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached transcript: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cached transcript: %w", err)
	}
	return &e, nil
}

func (r *Redis) Put(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKey(e.VideoID, e.Language), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache transcript: %w", err)
	}
	return nil
}

// Count scans the key space for transcript entries.
func (r *Redis) Count(ctx context.Context) (int, error) {
	n := 0
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("count cached transcripts: %w", err)
	}
	return n, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
