package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/heatmap/pkg/config"
)

const connectTimeout = 3 * time.Second

// Client is the shared Redis handle behind the result cache and the API rate
// limiter. A nil or disabled Client is valid and turns every call into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

// Options maps RedisConfig onto go-redis options
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// New connects when cfg.Enabled and verifies the connection with a PING.
// A disabled config returns a disabled client without dialing.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{}, nil
	}

	opts := Options(cfg)
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Enabled reports whether commands reach a server
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping checks the connection; nil when disabled
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// PoolStats returns connection pool counters; nil when disabled
func (c *Client) PoolStats() *redis.PoolStats {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.PoolStats()
}

// Close closes the connection pool
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Redis exposes the go-redis client (nil when disabled)
func (c *Client) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}
