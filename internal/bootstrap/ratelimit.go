package bootstrap

import (
	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// setupLoginRateLimiter returns the limiter for POST /api/login, or a
// pass-through middleware when rate limiting is disabled
func setupLoginRateLimiter(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.SugaredLogger,
) (gin.HandlerFunc, error) {
	if !cfg.EnableRateLimit {
		return func(c *gin.Context) { c.Next() }, nil
	}

	if redisClient != nil {
		logger.Infow("Rate limiting enabled", "store", config.RateLimitStoreRedis)
	} else {
		logger.Infow("Rate limiting enabled (single instance only)", "store", config.RateLimitStoreMemory)
	}

	return middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.LoginRateLimit,
		Prefix:            "login",
		Redis:             redisClient,
		Logger:            logger,
	})
}
