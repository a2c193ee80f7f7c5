package auth

import (
	"fmt"

	"github.com/go-authgate/login/internal/core"
)

// SingleProviderName labels users created through a single unnamed provider.
const SingleProviderName = "default"

// ProviderEntry registers an identity provider under a name.
type ProviderEntry struct {
	Name     string
	Default  bool
	Provider core.IdentityProvider
}

// ProviderSet resolves which identity provider handles a login.
// It is immutable after construction and safe for concurrent use.
type ProviderSet struct {
	entries []ProviderEntry
	single  core.IdentityProvider
}

// NewProviderSet builds a set of named providers. At most one entry may be
// flagged Default and names must be unique.
func NewProviderSet(entries ...ProviderEntry) (*ProviderSet, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no identity providers specified", ErrInvalidProviderConfig)
	}

	seen := make(map[string]struct{}, len(entries))
	defaults := 0
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: provider name is required", ErrInvalidProviderConfig)
		}
		if e.Provider == nil {
			return nil, fmt.Errorf("%w: provider %s has no implementation", ErrInvalidProviderConfig, e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate provider %s", ErrInvalidProviderConfig, e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%w: more than one default provider", ErrInvalidProviderConfig)
	}

	return &ProviderSet{entries: append([]ProviderEntry(nil), entries...)}, nil
}

// NewSingleProviderSet wraps one unnamed provider that handles every login
// regardless of the requested provider name.
func NewSingleProviderSet(p core.IdentityProvider) (*ProviderSet, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no identity provider specified", ErrInvalidProviderConfig)
	}
	return &ProviderSet{single: p}, nil
}

// Resolve returns the provider for providerName and the name users it
// authenticates are stored under. An empty providerName selects the default.
// Names are matched case-sensitively.
func (s *ProviderSet) Resolve(providerName string) (core.IdentityProvider, string, error) {
	if s.single != nil {
		return s.single, SingleProviderName, nil
	}

	if providerName == "" {
		for _, e := range s.entries {
			if e.Default {
				return e.Provider, e.Name, nil
			}
		}
		return nil, "", ErrNoDefaultProvider
	}

	for _, e := range s.entries {
		if e.Name == providerName {
			return e.Provider, e.Name, nil
		}
	}
	return nil, "", fmt.Errorf("%w %s", ErrInvalidProvider, providerName)
}

// Names returns the configured provider names in registration order.
func (s *ProviderSet) Names() []string {
	if s.single != nil {
		return []string{SingleProviderName}
	}
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.Name)
	}
	return names
}
