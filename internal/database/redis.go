package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/recipe-site/backend/config"
)

// RedisConfigured reports whether cfg names a Redis server at all.
func RedisConfigured(cfg *config.Config) bool {
	return cfg.RedisURL != "" || cfg.RedisHost != ""
}

// NewRedisClient creates a new Redis client
func NewRedisClient(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (*redis.Client, error) {
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Use Redis URL if provided (for production deployments)
	if cfg.RedisURL != "" {
		parsedOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsedOpts
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	zlog.Info("connected to redis", zap.String("addr", opts.Addr))
	return client, nil
}
