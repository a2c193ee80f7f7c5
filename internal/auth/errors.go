package auth

import (
	"errors"
	"fmt"

	"github.com/go-authgate/login/internal/core"
)

var (
	// ErrInvalidProvider is returned when the requested provider name is not configured
	ErrInvalidProvider = errors.New("invalid identity provider")

	// ErrNoDefaultProvider is returned when no provider name is given and none is flagged default
	ErrNoDefaultProvider = errors.New("no default identity provider found")

	// ErrInvalidProviderConfig is returned when a provider set cannot be built
	ErrInvalidProviderConfig = errors.New("invalid identity provider configuration")

	// ErrProviderUnavailable is core.ErrProviderUnavailable, wrapped by the
	// built-in providers
	ErrProviderUnavailable = core.ErrProviderUnavailable

	// HTTP API errors
	ErrHTTPAPIConnection = fmt.Errorf(
		"%w: failed to connect to authentication API",
		ErrProviderUnavailable,
	)
	ErrHTTPAPIInvalidResp = fmt.Errorf(
		"%w: invalid response from authentication API",
		ErrProviderUnavailable,
	)

	// OAuth errors
	ErrOAuthUnsupported = errors.New("unsupported oauth provider")
	ErrOAuthUserInfo    = errors.New("failed to get user info from oauth provider")
)
