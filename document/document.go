// Package document converts between cleartext documents and the encrypted,
// blinded envelope that is safe to hand to a semi-trusted remote store.
package document

import (
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/masterkey"
)

// BlindedAttribute is a single searchable index entry: the attribute name
// and value, each independently HMAC-blinded so the server can match two
// documents' attributes for equality without learning either plaintext.
type BlindedAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EncryptedDocument is the server-visible record for one document: a
// blinded id, the (possibly empty) set of blinded attributes the caller's
// IndexSet selected at encode time, and the encrypted body. Ordering of
// Attributes is not semantically significant.
type EncryptedDocument struct {
	ID         string             `json:"id"`
	Attributes []BlindedAttribute `json:"attributes"`
	JWE        *masterkey.JWE     `json:"jwe"`
}

var (
	// ErrMissingID is returned when a document has no non-empty string id.
	ErrMissingID = errs.Wrap(errs.ErrInvalidArgument, "document id must be a non-empty string")
	// ErrMalformedEnvelope is returned when a server-returned EncryptedDocument
	// is structurally invalid.
	ErrMalformedEnvelope = errs.Wrap(errs.ErrFormat, "malformed encrypted document")
	// ErrDecryptedMissingID is returned when a decrypted document body lacks
	// a string id field.
	ErrDecryptedMissingID = errs.Wrap(errs.ErrFormat, "decrypted document missing string id field")
)
