package core

import (
	"context"
	"errors"
)

// ErrProviderUnavailable marks a failure of the identity provider itself, as
// opposed to rejected credentials. The HTTP layer answers errors wrapping it
// with 502; any other error is reported as an internal server error.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// ExternalIdentity holds the attributes an identity provider returns for an
// authenticated subject. Empty strings mean the provider did not supply the
// attribute.
type ExternalIdentity struct {
	ProviderUserID string // Provider-scoped user ID (e.g., LDAP DN, API user ID)
	Username       string
	Email          string
	Avatar         string

	// ForceSameID asks for the local user ID to equal ProviderUserID.
	// Only honoured when the local user is first created.
	ForceSameID bool
}

// IdentityProvider is the interface that password-based authentication
// backends must implement.
//
// A nil identity with a nil error means the credentials were rejected.
// A non-nil error means the provider itself failed; implementations wrap
// ErrProviderUnavailable in it, e.g. fmt.Errorf("%w: ldap timeout", ErrProviderUnavailable).
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (*ExternalIdentity, error)
}
