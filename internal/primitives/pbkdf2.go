package primitives

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2KeySize is the derived key length used everywhere in this module
// (AES-256 key material).
const PBKDF2KeySize = 32

// PBKDF2HMACSHA512 derives a 32-byte key from password and salt using
// PBKDF2 with HMAC-SHA-512 as the pseudorandom function.
func PBKDF2HMACSHA512(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, PBKDF2KeySize, sha512.New)
}
