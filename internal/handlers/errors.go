package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/services"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "error" field of JSON error responses
const (
	errCodeInvalidRequest       = "invalid_request"
	errCodeInvalidProvider      = "invalid_provider"
	errCodeNoDefaultProvider    = "no_default_provider"
	errCodeInvalidIdentity      = "invalid_identity"
	errCodeAuthenticationFailed = "authentication_failed"
	errCodeInvalidCredentials   = "invalid_credentials"
	errCodeInvalidToken         = "invalid_token"
	errCodeServerError          = "server_error"
)

func respondError(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// loginErrorStatus maps a login failure to an HTTP status and error code.
// Provider failures are recognised through core.ErrProviderUnavailable;
// anything not recognised is treated as a storage failure.
func loginErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrProviderUnavailable):
		return http.StatusBadGateway, errCodeAuthenticationFailed
	case errors.Is(err, auth.ErrInvalidProvider):
		return http.StatusBadRequest, errCodeInvalidProvider
	case errors.Is(err, auth.ErrNoDefaultProvider):
		return http.StatusBadRequest, errCodeNoDefaultProvider
	case errors.Is(err, services.ErrInvalidIdentity):
		return http.StatusBadRequest, errCodeInvalidIdentity
	default:
		return http.StatusInternalServerError, errCodeServerError
	}
}
