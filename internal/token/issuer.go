package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/login/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is the access token lifetime when none is configured.
const DefaultExpiry = 30 * time.Minute

// Claims is the verified payload of an access token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Issuer mints and verifies HS256 access tokens bound to a user ID.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

// NewIssuer creates an issuer. A zero expiry falls back to DefaultExpiry.
func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSigningSecret
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{secret: []byte(secret), expiry: expiry}, nil
}

// Expiry returns the configured token lifetime.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue signs a token whose issuer claim is userID. The expiry is truncated
// to whole seconds so the exp claim and ExpiresAt always agree.
func (i *Issuer) Issue(userID string) (*models.AccessToken, error) {
	expiresAt := time.Now().Add(i.expiry).Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		Issuer:    userID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &models.AccessToken{
		ExpiresAt: expiresAt.UnixMilli(),
		Token:     tokenString,
	}, nil
}

// Parse verifies the signature and expiry of tokenString.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Issuer == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
