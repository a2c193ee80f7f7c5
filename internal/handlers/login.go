package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/services"
	"github.com/go-authgate/login/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginHandler serves the password login and token verification API
type LoginHandler struct {
	login   *services.LoginService
	logger  *zap.SugaredLogger
	metrics core.Recorder
}

func NewLoginHandler(
	login *services.LoginService,
	logger *zap.SugaredLogger,
	m core.Recorder,
) *LoginHandler {
	return &LoginHandler{login: login, logger: logger, metrics: m}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Provider string `json:"provider"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Login handles POST /api/login
func (h *LoginHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errCodeInvalidRequest,
			"username and password are required")
		return
	}

	user, err := h.login.Login(c.Request.Context(), req.Username, req.Password, req.Provider)
	if err != nil {
		status, code := loginErrorStatus(err)
		h.logger.Warnw("Login failed",
			"provider", req.Provider,
			"status", status,
			"error", err,
		)
		respondError(c, status, code, errorDescription(status, err))
		return
	}
	if user == nil {
		respondError(c, http.StatusUnauthorized, errCodeInvalidCredentials,
			"Invalid username or password")
		return
	}

	c.JSON(http.StatusOK, user)
}

// VerifyToken handles POST /api/token/verify. The token is read from the JSON
// body or, failing that, from a Bearer Authorization header.
func (h *LoginHandler) VerifyToken(c *gin.Context) {
	var req verifyRequest
	_ = c.ShouldBindJSON(&req)

	tokenString := req.Token
	if tokenString == "" {
		tokenString, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if tokenString == "" {
		respondError(c, http.StatusBadRequest, errCodeInvalidRequest, "token is required")
		return
	}

	claims, err := h.login.Issuer().Parse(tokenString)
	if err != nil {
		result := "invalid"
		description := "Token is invalid"
		if errors.Is(err, token.ErrExpiredToken) {
			result = "expired"
			description = "Token has expired"
		}
		h.metrics.RecordTokenValidation(result)
		respondError(c, http.StatusUnauthorized, errCodeInvalidToken, description)
		return
	}

	h.metrics.RecordTokenValidation("valid")
	c.JSON(http.StatusOK, gin.H{
		"user_id": claims.UserID,
		"expires": claims.ExpiresAt.UnixMilli(),
	})
}

// errorDescription hides internal details of server-side failures
func errorDescription(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "Internal server error"
	case http.StatusBadGateway:
		return "Identity provider is unavailable"
	default:
		return err.Error()
	}
}
