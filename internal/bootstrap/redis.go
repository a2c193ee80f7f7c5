package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/login/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisConnTimeout = 5 * time.Second

// initializeRateLimitRedisClient initializes the go-redis client for rate limiting.
// Returns nil if rate limiting is disabled or using memory store.
func initializeRateLimitRedisClient(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) (*redis.Client, error) {
	if !cfg.EnableRateLimit || cfg.RateLimitStore != config.RateLimitStoreRedis {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Infow("Rate limiting Redis client initialized",
		"address", cfg.RedisAddr,
		"db", cfg.RedisDB,
	)
	return client, nil
}
