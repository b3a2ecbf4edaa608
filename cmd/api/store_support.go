package main

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/auth-gateway/internal/config"
	"github.com/yourusername/auth-gateway/internal/users"
)

// setupStore は STORE_DRIVER に応じたユーザーストアを用意します。
func setupStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (users.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory user store; registered users are lost on restart")
		return users.NewMemoryStore(), nil

	case config.StoreDriverPostgres:
		store, err := users.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case config.StoreDriverRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return users.NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("unsupported STORE_DRIVER: %s", cfg.StoreDriver)
}
