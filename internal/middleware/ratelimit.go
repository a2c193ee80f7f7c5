package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitConfig holds the configuration for a per-client-IP rate limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	Prefix            string        // Key prefix, separates limiters sharing one store
	CleanupInterval   time.Duration // How often expired keys are swept

	// Redis shares counters across instances. Nil selects the in-memory store.
	// The caller owns the client and its connection check.
	Redis *redis.Client

	Logger *zap.SugaredLogger // optional
}

// NewRateLimiter creates a rate limiting middleware backed by memory or Redis
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	if config.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", config.RequestsPerMinute)
	}
	if config.Prefix == "" {
		config.Prefix = "ratelimit"
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	options := limiter.StoreOptions{
		Prefix:          config.Prefix,
		CleanUpInterval: config.CleanupInterval,
	}

	var store limiter.Store
	if config.Redis != nil {
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.Redis, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(options)
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		if config.Logger != nil {
			config.Logger.Warnw("Rate limit exceeded",
				"prefix", config.Prefix,
				"client_ip", c.ClientIP(),
				"path", c.FullPath(),
			)
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate_limit_exceeded",
			"error_description": "Too many requests. Please try again later.",
		})
	})), nil
}
