package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	retry "github.com/appleboy/go-httpretry"

	"github.com/go-authgate/login/internal/core"
)

// HTTPAPIAuthProvider handles HTTP API-based authentication
type HTTPAPIAuthProvider struct {
	url         string
	retryClient *retry.Client
}

var _ core.IdentityProvider = (*HTTPAPIAuthProvider)(nil)

// NewHTTPAPIAuthProvider creates a new HTTP API authentication provider
func NewHTTPAPIAuthProvider(url string, retryClient *retry.Client) *HTTPAPIAuthProvider {
	return &HTTPAPIAuthProvider{
		url:         url,
		retryClient: retryClient,
	}
}

// APIAuthRequest is the request payload sent to external API
type APIAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIAuthResponse is the expected response from external API
type APIAuthResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	SameID    bool   `json:"same_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Authenticate verifies credentials against external HTTP API.
// A rejection (success=false, 401 or 403) yields a nil identity;
// transport failures and malformed responses are errors.
func (p *HTTPAPIAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.ExternalIdentity, error) {
	jsonData, err := json.Marshal(APIAuthRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.retryClient.Post(
		ctx,
		p.url,
		retry.WithBody("application/json", bytes.NewBuffer(jsonData)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrHTTPAPIInvalidResp)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// Limit body preview to 200 characters to avoid overwhelming logs
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return nil, fmt.Errorf(
			"%w: HTTP %d - %s",
			ErrHTTPAPIInvalidResp,
			resp.StatusCode,
			bodyPreview,
		)
	}

	var authResp APIAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIInvalidResp, err)
	}

	if !authResp.Success {
		return nil, nil
	}

	if authResp.UserID == "" {
		return nil, fmt.Errorf(
			"%w: external API returned success=true but missing user_id",
			ErrHTTPAPIInvalidResp,
		)
	}

	identity := &core.ExternalIdentity{
		ProviderUserID: authResp.UserID,
		Username:       authResp.Username,
		Email:          authResp.Email,
		Avatar:         authResp.AvatarURL,
		ForceSameID:    authResp.SameID,
	}
	if identity.Username == "" {
		identity.Username = username
	}
	return identity, nil
}

// Name returns provider name for logging
func (p *HTTPAPIAuthProvider) Name() string {
	return "http_api"
}
