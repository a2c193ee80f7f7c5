package bootstrap

import (
	"net/http"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/handlers"
	"github.com/go-authgate/login/internal/services"

	"go.uber.org/zap"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	health *handlers.HealthHandler
	login  *handlers.LoginHandler
	oauth  *handlers.OAuthHandler // nil when no OAuth provider is configured
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	db handlers.HealthChecker,
	loginService *services.LoginService,
	oauthProviders map[string]*auth.OAuthProvider,
	oauthHTTPClient *http.Client,
	logger *zap.SugaredLogger,
	m core.Recorder,
) handlerSet {
	h := handlerSet{
		health: handlers.NewHealthHandler(db),
		login:  handlers.NewLoginHandler(loginService, logger, m),
	}
	if len(oauthProviders) > 0 {
		h.oauth = handlers.NewOAuthHandler(
			oauthProviders,
			loginService,
			oauthHTTPClient,
			logger,
			m,
		)
	}
	return h
}
