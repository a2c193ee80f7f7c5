package util

import (
	"crypto/rand"
	"encoding/base64"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// RandomURLToken returns n random bytes encoded as unpadded base64url,
// suitable for query parameters such as an OAuth state.
func RandomURLToken(n int) (string, error) {
	b, err := CryptoRandomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
