package bootstrap

import (
	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/services"
	"github.com/go-authgate/login/internal/store"

	"go.uber.org/zap"
)

// initializeLoginService creates the login orchestrator
func initializeLoginService(
	cfg *config.Config,
	db *store.Store,
	providers *auth.ProviderSet,
	logger *zap.SugaredLogger,
	m core.Recorder,
) (*services.LoginService, error) {
	return services.NewLoginService(services.Options{
		Store:       db,
		Providers:   providers,
		TokenSecret: cfg.JWTSecret,
		TokenExpiry: cfg.JWTExpiration,
		Logger:      logger.Named("audit"),
		Metrics:     m,
	})
}
