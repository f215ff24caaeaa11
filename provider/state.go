package provider

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewState returns a random value for the OAuth2 state parameter. The
// transport layer stores it in a short-lived cookie and compares it on the
// callback to reject forged redirects.
func NewState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("provider: generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
