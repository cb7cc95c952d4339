// Package masterkey implements the root of the key-derivation hierarchy:
// a master HMAC secret from which a document key-encryption key (KEK) and
// an index HMAC key are derived, document envelope encryption, deterministic
// blinding for searchable tokens, and password-based wrapping for storage.
package masterkey

// Wire-format algorithm constants, fixed by the spec and never renegotiated
// per document or per wrap.
const (
	// AlgDocumentKW is the JWE "alg" for wrapping a document's content
	// encryption key under the KEK.
	AlgDocumentKW = "A256KW"

	// AlgDocumentEnc is the JWE "enc" for the document body cipher.
	AlgDocumentEnc = "A256GCM"

	// AlgPasswordWrap is the "alg" for a password-wrapped master key.
	AlgPasswordWrap = "PBES2-HS512+A256KW"

	// DefaultPBKDF2Iterations is used whenever a new WrappedMasterKey is
	// produced. Any positive integer is accepted when reading one back.
	DefaultPBKDF2Iterations = 4096

	// saltSize is the salt length used whenever a new WrappedMasterKey is
	// produced.
	saltSize = 32

	// masterKeySize is the size of the raw master secret and every
	// subkey derived from it.
	masterKeySize = 32
)

// kekLabel and hmacLabel are the closed set of UTF-8 labels used to derive
// subkeys from the master secret via HMAC-SHA-256. Adding a label here
// retroactively changes every derivation downstream of it and must never be
// done after the scheme ships.
var (
	kekLabel  = []byte("kek")
	hmacLabel = []byte("hmac")
)
