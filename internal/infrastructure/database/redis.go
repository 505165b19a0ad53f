package database

import (
	"context"
	"fmt"

	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisConnection manages Redis client connection
type RedisConnection struct {
	Client *redis.Client
}

// NewRedisConnection creates a new Redis connection.
// A URL (for Upstash and other hosted Redis) takes precedence over Addr.
func NewRedisConnection(cfg config.RedisConfig) (*RedisConnection, error) {
	var client *redis.Client

	if cfg.URL != "" {
		// ParseURL handles TLS automatically when using rediss:// scheme
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}

		if cfg.TLSSkipVerify && opts.TLSConfig != nil {
			opts.TLSConfig.InsecureSkipVerify = true
		}

		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	return &RedisConnection{Client: client}, nil
}

// Ping verifies the connection is alive
func (r *RedisConnection) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisConnection) Close() error {
	return r.Client.Close()
}
