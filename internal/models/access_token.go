package models

// AccessToken is the signed token attached to a user after a successful login.
// It is returned to the caller and never persisted.
type AccessToken struct {
	ExpiresAt int64  `json:"expires"` // Unix epoch milliseconds
	Token     string `json:"token"`
}
