package models

import "time"

// LocalCredential is a username/password pair checked by the built-in local
// identity provider.
type LocalCredential struct {
	Username     string `gorm:"primaryKey"` // always lowercase
	PasswordHash string `gorm:"not null"`
	ExternalID   string `gorm:"uniqueIndex;not null"`
	Email        string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
