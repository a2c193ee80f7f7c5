package core

import (
	"context"

	"github.com/go-authgate/login/internal/models"
)

// UserStore defines the user database operations the login flow depends on.
type UserStore interface {
	// FindUser looks up a user by provider user ID and provider name.
	// Returns (nil, nil) when no such user exists.
	FindUser(ctx context.Context, providerUserID, provider string) (*models.User, error)

	// CreateUser persists a new user and returns the stored record.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// UpdateUser persists changes to an existing user and returns the stored record.
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)

	// ListUserOrgs returns the organizations the user is a member of.
	ListUserOrgs(ctx context.Context, userID string) ([]models.Org, error)
}
