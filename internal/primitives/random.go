// Package primitives implements the narrow set of cryptographic algorithms
// this module depends on: AES-GCM, AES key wrap, HMAC-SHA-256, and
// PBKDF2-HMAC-SHA-512. Every function here is stateless and safe for
// concurrent use.
package primitives

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
