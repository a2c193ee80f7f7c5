package bootstrap

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/config"

	httpclient "github.com/appleboy/go-httpclient"
	"go.uber.org/zap"
)

// initializeOAuthProviders initializes configured OAuth providers
func initializeOAuthProviders(
	cfg *config.Config,
	logger *zap.SugaredLogger,
) map[string]*auth.OAuthProvider {
	providers := make(map[string]*auth.OAuthProvider)

	// GitHub OAuth
	switch {
	case !cfg.GitHubOAuthEnabled:
		// Skip GitHub OAuth
	case cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "":
		logger.Warn("GitHub OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers["github"] = auth.NewGitHubProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubOAuthRedirectURL,
			Scopes:       cfg.GitHubOAuthScopes,
		})
		logger.Infow("GitHub OAuth configured", "redirect", cfg.GitHubOAuthRedirectURL)
	}

	// Gitea OAuth
	switch {
	case !cfg.GiteaOAuthEnabled:
		// Skip Gitea OAuth
	case cfg.GiteaURL == "" || cfg.GiteaClientID == "" || cfg.GiteaClientSecret == "":
		logger.Warn("Gitea OAuth enabled but URL, CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers["gitea"] = auth.NewGiteaProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GiteaClientID,
			ClientSecret: cfg.GiteaClientSecret,
			RedirectURL:  cfg.GiteaOAuthRedirectURL,
			Scopes:       cfg.GiteaOAuthScopes,
		}, cfg.GiteaURL)
		logger.Infow("Gitea OAuth configured",
			"server", cfg.GiteaURL,
			"redirect", cfg.GiteaOAuthRedirectURL,
		)
	}

	if len(providers) > 0 {
		logger.Infow("OAuth providers enabled", "providers", getProviderNames(providers))
	}
	return providers
}

// getProviderNames returns the sorted provider names
func getProviderNames(providers map[string]*auth.OAuthProvider) []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// createOAuthHTTPClient creates the HTTP client used for code exchange and user info
func createOAuthHTTPClient(cfg *config.Config) (*http.Client, error) {
	httpClient, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth HTTP client: %w", err)
	}
	return httpClient, nil
}
