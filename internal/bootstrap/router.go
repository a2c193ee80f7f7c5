package bootstrap

import (
	"net/http"

	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/metrics"
	"github.com/go-authgate/login/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// oauthSessionMaxAge bounds how long an OAuth state stays valid
const oauthSessionMaxAge = 600

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	prometheusMetrics core.Recorder,
	loginLimiter gin.HandlerFunc,
	logger *zap.SugaredLogger,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", h.health.Health)
	setupMetricsEndpoint(r, cfg, logger)

	api := r.Group("/api")
	{
		api.POST("/login", loginLimiter, h.login.Login)
		api.POST("/token/verify", h.login.VerifyToken)
	}

	if h.oauth != nil {
		oauth := r.Group("/oauth")
		oauth.Use(sessionMiddleware(cfg))
		{
			oauth.GET("/:provider/login", h.oauth.LoginWithProvider)
			oauth.GET("/:provider/callback", h.oauth.OAuthCallback)
		}
	}

	logger.Infow("Router configured",
		"addr", cfg.ServerAddr,
		"base_url", cfg.BaseURL,
		"oauth", h.oauth != nil,
	)
	return r
}

func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
}

// sessionMiddleware stores OAuth state in a signed cookie
func sessionMiddleware(cfg *config.Config) gin.HandlerFunc {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/oauth",
		MaxAge:   oauthSessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions("oauth_session", sessionStore)
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, logger *zap.SugaredLogger) {
	switch {
	case !cfg.MetricsEnabled:
		logger.Info("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		logger.Info("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		logger.Info("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
