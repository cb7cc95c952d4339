package masterkey

import "github.com/vaultline/lockbox/errs"

// Errors specific to master-key handling. All wrap a sentinel in package
// errs so callers can classify failures with errors.Is regardless of which
// package produced them.
var (
	// ErrInvalidKeySize indicates a raw key or derived subkey is not the
	// required 32 bytes.
	ErrInvalidKeySize = errs.Wrap(errs.ErrInvalidArgument, "invalid key size, must be 32 bytes")

	// ErrUnsupportedAlgorithm indicates a JWE or wrapped-key header names
	// an algorithm this module does not implement.
	ErrUnsupportedAlgorithm = errs.Wrap(errs.ErrFormat, "unsupported algorithm")

	// ErrMalformedJWE indicates a DocumentJWE is missing a required field
	// or a field is not validly shaped.
	ErrMalformedJWE = errs.Wrap(errs.ErrFormat, "malformed document envelope")

	// ErrMalformedWrappedKey indicates a WrappedMasterKey is missing a
	// required field or a field is not validly shaped.
	ErrMalformedWrappedKey = errs.Wrap(errs.ErrFormat, "malformed wrapped master key")

	// ErrDecryptedDocumentNotObject indicates the JSON recovered from a
	// document JWE did not decode to an object.
	ErrDecryptedDocumentNotObject = errs.Wrap(errs.ErrFormat, "decrypted document is not a JSON object")
)
