// Package cache manages the Redis cache backend of the stack under test:
// readiness probing before tests run and flushing between tests so cached
// pages from one test cannot leak into the next.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds the initial readiness ping.
const connectTimeout = 5 * time.Second

// Client wraps a Redis connection for test runs.
type Client struct {
	rdb *redis.Client
}

// Connect creates a Redis client from a URL (e.g.,
// "redis://localhost:6379/1") and verifies the server answers a ping.
func Connect(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Flush clears the selected database. Tests call this between cases so
// each starts from an empty cache.
func (c *Client) Flush(ctx context.Context) error {
	if err := c.rdb.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush redis: %w", err)
	}
	return nil
}

// Redis exposes the underlying client for tests that assert on cache
// contents directly.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
