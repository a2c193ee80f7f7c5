package bootstrap

import (
	"fmt"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/client"
	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/store"

	"go.uber.org/zap"
)

// initializeIdentityProviders builds the provider set from IDENTITY_PROVIDERS.
// A lone provider becomes the default unless DEFAULT_IDENTITY_PROVIDER says otherwise.
func initializeIdentityProviders(
	cfg *config.Config,
	db *store.Store,
	logger *zap.SugaredLogger,
) (*auth.ProviderSet, error) {
	entries := make([]auth.ProviderEntry, 0, len(cfg.IdentityProviders))
	for _, name := range cfg.IdentityProviders {
		provider, err := newIdentityProvider(cfg, db, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, auth.ProviderEntry{
			Name:     name,
			Default:  name == cfg.DefaultIdentityProvider,
			Provider: provider,
		})
	}
	if len(entries) == 1 && cfg.DefaultIdentityProvider == "" {
		entries[0].Default = true
	}

	set, err := auth.NewProviderSet(entries...)
	if err != nil {
		return nil, err
	}

	logger.Infow("Identity providers configured",
		"providers", set.Names(),
		"default", cfg.DefaultIdentityProvider,
	)
	return set, nil
}

func newIdentityProvider(
	cfg *config.Config,
	db *store.Store,
	name string,
) (core.IdentityProvider, error) {
	switch name {
	case config.IdentityProviderLocal:
		return auth.NewLocalAuthProvider(db), nil
	case config.IdentityProviderHTTPAPI:
		retryClient, err := client.NewRetryClient(client.RetryConfig{
			AuthMode:           cfg.HTTPAPIAuthMode,
			AuthSecret:         cfg.HTTPAPIAuthSecret,
			AuthHeader:         cfg.HTTPAPIAuthHeader,
			Timeout:            cfg.HTTPAPITimeout,
			InsecureSkipVerify: cfg.HTTPAPIInsecureSkipVerify,
			MaxRetries:         cfg.HTTPAPIMaxRetries,
			RetryDelay:         cfg.HTTPAPIRetryDelay,
			MaxRetryDelay:      cfg.HTTPAPIMaxRetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP API auth client: %w", err)
		}
		return auth.NewHTTPAPIAuthProvider(cfg.HTTPAPIURL, retryClient), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", auth.ErrInvalidProviderConfig, name)
	}
}
