package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server, logger *zap.SugaredLogger) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			logger.Infow("Server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalw("Failed to start server", "error", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, logger *zap.SugaredLogger) {
	m.AddShutdownJob(func() error {
		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorw("Server forced to shutdown", "error", err)
			return err
		}

		logger.Info("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(
	m *graceful.Manager,
	redisClient *redis.Client,
	logger *zap.SugaredLogger,
) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			logger.Errorw("Error closing Redis client", "error", err)
			return err
		}
		logger.Info("Redis connection closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the database connection pool
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store, logger *zap.SugaredLogger) {
	m.AddShutdownJob(func() error {
		if err := db.Close(); err != nil {
			logger.Errorw("Error closing database", "error", err)
			return err
		}
		logger.Info("Database connection closed")
		return nil
	})
}
