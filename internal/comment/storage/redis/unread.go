package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "forum:unread:"

// Unread keeps per-viewer unread notification counters in Redis.
type Unread struct {
	rdb *redis.Client
}

// Connect parses url, pings the server and returns a counter bound to it.
func Connect(ctx context.Context, url string) (*Unread, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(rdb), nil
}

func New(rdb *redis.Client) *Unread {
	return &Unread{rdb: rdb}
}

func (u *Unread) Incr(ctx context.Context, viewerID string) (int64, error) {
	return u.rdb.Incr(ctx, keyPrefix+viewerID).Result()
}

func (u *Unread) Count(ctx context.Context, viewerID string) (int64, error) {
	n, err := u.rdb.Get(ctx, keyPrefix+viewerID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (u *Unread) Reset(ctx context.Context, viewerID string) error {
	return u.rdb.Del(ctx, keyPrefix+viewerID).Err()
}

func (u *Unread) Close() error {
	return u.rdb.Close()
}
