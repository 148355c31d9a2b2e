package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The client serves the sliding-window limiter on the request path, so the
// timeouts are kept tight: a slow Redis must degrade into the limiter's
// allow-on-error fallback instead of stalling every request.
const (
	dialTimeout  = 2 * time.Second
	readTimeout  = 250 * time.Millisecond
	writeTimeout = 250 * time.Millisecond
	poolSize     = 16
	minIdleConns = 2
	pingTimeout  = 2 * time.Second
)

func NewRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.PoolSize = poolSize
	opts.MinIdleConns = minIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
