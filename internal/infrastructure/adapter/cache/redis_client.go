package cache

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient configures a Redis client and verifies connectivity
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
