// Package codec provides the strict base64url encoding and zeroizing buffer
// primitives shared by every cryptographic component in this module.
package codec

import (
	"encoding/base64"

	"github.com/vaultline/lockbox/errs"
)

// EncodeToString encodes b as unpadded, URL-safe base64.
func EncodeToString(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeString strictly decodes an unpadded, URL-safe base64 string.
// Non-alphabet bytes or padding characters are rejected: wire data is only
// self-authenticating via AEAD tags after decode, so malformed tokens must
// fail early rather than decode to unexpected bytes.
func DecodeString(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFormat, "invalid base64url: "+err.Error())
	}
	return b, nil
}
