package store

import "errors"

var (
	// ErrUserConflict is returned when a user already exists for the same provider identity
	ErrUserConflict = errors.New("user already exists for provider identity")

	// ErrUsernameConflict is returned when a local credential username already exists
	ErrUsernameConflict = errors.New("username already exists")

	// ErrUnsupportedDriver is returned for an unknown DATABASE_DRIVER value
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
