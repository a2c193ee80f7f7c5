package token

import "errors"

var (
	// ErrMissingSigningSecret indicates the issuer was built without a secret
	ErrMissingSigningSecret = errors.New("missing token signing secret")
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")
)
