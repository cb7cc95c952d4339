package primitives

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256 computes HMAC-SHA-256(key, data).
func HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
