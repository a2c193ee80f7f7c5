package handlers

import (
	"context"
	"net/http"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/services"
	"github.com/go-authgate/login/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	sessionKeyState    = "oauth_state"
	sessionKeyProvider = "oauth_provider"

	oauthStateBytes = 32
	maxStateLength  = 128
)

// OAuthHandler runs the OAuth authorization code flow and logs the resulting
// identity in through the login service
type OAuthHandler struct {
	providers  map[string]*auth.OAuthProvider
	login      *services.LoginService
	httpClient *http.Client // Custom HTTP client for OAuth requests
	logger     *zap.SugaredLogger
	metrics    core.Recorder
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(
	providers map[string]*auth.OAuthProvider,
	login *services.LoginService,
	httpClient *http.Client,
	logger *zap.SugaredLogger,
	m core.Recorder,
) *OAuthHandler {
	return &OAuthHandler{
		providers:  providers,
		login:      login,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// LoginWithProvider redirects the user to the OAuth provider
func (h *OAuthHandler) LoginWithProvider(c *gin.Context) {
	provider := c.Param("provider")

	oauthProvider, exists := h.providers[provider]
	if !exists {
		respondError(c, http.StatusBadRequest, errCodeInvalidProvider,
			"The requested OAuth provider is not configured")
		return
	}

	// State for CSRF protection
	state, err := util.RandomURLToken(oauthStateBytes)
	if err != nil {
		h.logger.Errorw("Failed to generate OAuth state", "error", err)
		respondError(c, http.StatusInternalServerError, errCodeServerError,
			"Failed to initiate OAuth login")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyState, state)
	session.Set(sessionKeyProvider, provider)
	if err := session.Save(); err != nil {
		h.logger.Errorw("Failed to save OAuth session", "error", err)
		respondError(c, http.StatusInternalServerError, errCodeServerError,
			"Failed to save session")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, oauthProvider.GetAuthURL(state))
}

// OAuthCallback exchanges the authorization code and returns the logged in user
func (h *OAuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	code := c.Query("code")
	state := c.Query("state")

	oauthProvider, exists := h.providers[provider]
	if !exists {
		respondError(c, http.StatusBadRequest, errCodeInvalidProvider, "OAuth provider not found")
		return
	}

	if code == "" || state == "" || len(state) > maxStateLength {
		respondError(c, http.StatusBadRequest, errCodeInvalidRequest,
			"Missing or malformed code or state")
		return
	}

	session := sessions.Default(c)
	savedState, _ := session.Get(sessionKeyState).(string)
	savedProvider, _ := session.Get(sessionKeyProvider).(string)
	if savedState == "" || state != savedState || provider != savedProvider {
		respondError(c, http.StatusBadRequest, errCodeInvalidRequest,
			"OAuth session expired or state mismatch. Please try again.")
		return
	}

	// States are single use
	session.Delete(sessionKeyState)
	session.Delete(sessionKeyProvider)
	if err := session.Save(); err != nil {
		h.logger.Errorw("Failed to clear OAuth session", "error", err)
	}

	ctx := context.WithValue(c.Request.Context(), oauth2.HTTPClient, h.httpClient)

	oauthToken, err := oauthProvider.ExchangeCode(ctx, code)
	if err != nil {
		h.metrics.RecordOAuthCallback(provider, false)
		h.logger.Warnw("Failed to exchange OAuth code", "provider", provider, "error", err)
		respondError(c, http.StatusBadGateway, errCodeAuthenticationFailed,
			"Failed to exchange authorization code")
		return
	}

	identity, err := oauthProvider.GetIdentity(ctx, oauthToken)
	if err != nil {
		h.metrics.RecordOAuthCallback(provider, false)
		h.logger.Warnw("Failed to get OAuth identity", "provider", provider, "error", err)
		respondError(c, http.StatusBadGateway, errCodeAuthenticationFailed,
			"Failed to retrieve user information from provider")
		return
	}

	user, err := h.login.LoginWithIdentity(c.Request.Context(), identity, provider)
	if err != nil {
		h.metrics.RecordOAuthCallback(provider, false)
		status, code := loginErrorStatus(err)
		h.logger.Errorw("OAuth login failed", "provider", provider, "error", err)
		respondError(c, status, code, errorDescription(status, err))
		return
	}

	h.metrics.RecordOAuthCallback(provider, true)
	c.JSON(http.StatusOK, user)
}
