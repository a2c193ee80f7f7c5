package models

import (
	"time"
)

// User is the local account correlated with exactly one external identity.
type User struct {
	UserID         string `gorm:"primaryKey" json:"userId"`
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_users_provider_identity,priority:1" json:"providerUserId"`
	Provider       string `gorm:"not null;uniqueIndex:idx_users_provider_identity,priority:2" json:"provider"` // Name of the identity provider

	// Profile attributes mirrored from the identity provider
	Username string `gorm:"index" json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`

	LastLogin time.Time `json:"lastLogin"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Loaded per login, never stored
	Orgs []Org        `gorm:"-" json:"orgs,omitempty"`
	JWT  *AccessToken `gorm:"-" json:"jwt,omitempty"`
}
