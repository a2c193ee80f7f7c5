package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore looks up local credentials by lowercase username.
// Returns (nil, nil) when the username is unknown.
type CredentialStore interface {
	GetLocalCredential(ctx context.Context, username string) (*models.LocalCredential, error)
}

// LocalAuthProvider handles local database authentication
type LocalAuthProvider struct {
	store CredentialStore
}

var _ core.IdentityProvider = (*LocalAuthProvider)(nil)

// NewLocalAuthProvider creates a new local authentication provider
func NewLocalAuthProvider(s CredentialStore) *LocalAuthProvider {
	return &LocalAuthProvider{store: s}
}

// Authenticate verifies credentials against the local credential table.
// Unknown usernames and wrong passwords both yield a nil identity.
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.ExternalIdentity, error) {
	cred, err := p.store.GetLocalCredential(ctx, strings.ToLower(username))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load local credential: %w", ErrProviderUnavailable, err)
	}
	if cred == nil {
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(cred.PasswordHash),
		[]byte(password),
	); err != nil {
		return nil, nil
	}

	return &core.ExternalIdentity{
		ProviderUserID: cred.ExternalID,
		Username:       cred.Username,
		Email:          cred.Email,
		Avatar:         cred.Avatar,
	}, nil
}

// Name returns provider name for logging
func (p *LocalAuthProvider) Name() string {
	return "local"
}
