// Package token issues opaque random credentials for invite links.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// InviteSize is the number of random bytes in an invite token (256 bits).
const InviteSize = 32

// Generate returns size random bytes hex-encoded. The result is URL-safe
// and twice as long as size.
func Generate(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// NewInvite returns a fresh invite token.
func NewInvite() (string, error) {
	return Generate(InviteSize)
}
