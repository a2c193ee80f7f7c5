package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-authgate/login/internal/core"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthProvider exchanges an OAuth authorization code for an external
// identity. The identity is handed to the login service as already verified.
type OAuthProvider struct {
	config     *oauth2.Config
	provider   string // "github", "gitea"
	apiBaseURL string
}

// NewGitHubProvider creates a new GitHub OAuth provider
func NewGitHubProvider(cfg OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		provider:   "github",
		apiBaseURL: githubAPIURL,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
	}
}

// NewGiteaProvider creates a new Gitea OAuth provider
func NewGiteaProvider(cfg OAuthProviderConfig, giteaURL string) *OAuthProvider {
	giteaURL = strings.TrimSuffix(giteaURL, "/")
	return &OAuthProvider{
		provider:   "gitea",
		apiBaseURL: giteaURL + "/api/v1",
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  giteaURL + "/login/oauth/authorize",
				TokenURL: giteaURL + "/login/oauth/access_token",
			},
		},
	}
}

// GetAuthURL returns the OAuth authorization URL
func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges authorization code for access token
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// GetProvider returns the provider name
func (p *OAuthProvider) GetProvider() string {
	return p.provider
}

// GetIdentity retrieves the authenticated subject from the OAuth provider.
// A custom HTTP client can be supplied via the oauth2.HTTPClient context key.
func (p *OAuthProvider) GetIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*core.ExternalIdentity, error) {
	switch p.provider {
	case "github", "gitea":
		return p.fetchUser(ctx, token)
	default:
		return nil, fmt.Errorf("%w: %s", ErrOAuthUnsupported, p.provider)
	}
}

// oauthUser covers the fields GitHub and Gitea share on their /user endpoint
type oauthUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *OAuthProvider) fetchUser(
	ctx context.Context,
	token *oauth2.Token,
) (*core.ExternalIdentity, error) {
	client := p.config.Client(ctx, token)

	var user oauthUser
	if err := getJSON(ctx, client, p.apiBaseURL+"/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: %s returned no user id", ErrOAuthUserInfo, p.provider)
	}

	// GitHub hides non-public addresses from /user
	if user.Email == "" && p.provider == "github" {
		var emails []githubEmail
		if err := getJSON(ctx, client, p.apiBaseURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		user.Email = primaryEmail(emails)
	}

	return &core.ExternalIdentity{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Username:       user.Login,
		Email:          user.Email,
		Avatar:         user.AvatarURL,
	}, nil
}

func primaryEmail(emails []githubEmail) string {
	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email
		}
	}
	for _, email := range emails {
		if email.Verified {
			return email.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%w: %s - %s", ErrOAuthUserInfo, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}
	return nil
}
