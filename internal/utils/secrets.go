package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Secrets is the set of shared secrets the API needs at startup
type Secrets struct {
	JWTSecret        string
	JWTRefreshSecret string
	WebhookSecret    string
}

// GenerateSecrets generates independent 256-bit secrets for tokens and webhook signing
func GenerateSecrets() (*Secrets, error) {
	var s Secrets
	targets := []struct {
		name string
		dst  *string
	}{
		{"access token", &s.JWTSecret},
		{"refresh token", &s.JWTRefreshSecret},
		{"webhook", &s.WebhookSecret},
	}
	for _, t := range targets {
		v, err := GenerateSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s secret: %w", t.name, err)
		}
		*t.dst = v
	}
	return &s, nil
}
