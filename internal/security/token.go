package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSessionToken returns an opaque bearer token. The token is
// the credential itself; it is stored verbatim as the session key.
func GenerateSessionToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
