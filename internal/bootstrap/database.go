package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/store"
)

const dbInitTimeout = 30 * time.Second

// initializeDatabase creates and migrates the database connection
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, dbInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
