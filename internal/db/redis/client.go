// Package redis provides Redis connectivity for shared gateway state.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"norelock.dev/mediagate/backend/internal/config"
	"norelock.dev/mediagate/backend/internal/utils"
)

// Client wraps the Redis client with app-specific functionality
type Client struct {
	client redis.UniversalClient
	logger *utils.Logger
}

// NewClient creates a new Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Client, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}

	opts := &redis.Options{
		Addr:         cfg.Redis.Address,
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, "addr", opts.Addr)
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewClientFrom(client, logger), nil
}

// NewClientFrom wraps an existing connection, such as a cluster client or a test server.
func NewClientFrom(client redis.UniversalClient, logger *utils.Logger) *Client {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Client{
		client: client,
		logger: logger.Named("redis"),
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", err)
		return err
	}
	c.logger.Info("Closed Redis connection")
	return nil
}

// Ping pings the Redis server. It doubles as the health check.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("Failed to ping Redis", err)
		return err
	}
	return nil
}

// Logger returns the logger used by the client
func (c *Client) Logger() *utils.Logger {
	return c.logger
}

// FormatKey creates a namespaced Redis key
func FormatKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}
