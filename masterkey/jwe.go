package masterkey

// JWEHeader carries the unprotected algorithm pair for a DocumentJWE. It is
// always {A256KW, A256GCM} for documents produced by this module, but is
// still validated on decode since the envelope may have been written by a
// different version of the client.
type JWEHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
}

// JWE is the envelope for a single document body: an AES-KW-wrapped content
// key, an AES-GCM ciphertext/tag pair, and the IV used to produce them.
// Every binary field is base64url without padding. Associated data is
// always empty.
type JWE struct {
	Unprotected  JWEHeader `json:"unprotected"`
	EncryptedKey string    `json:"encrypted_key"`
	IV           string    `json:"iv"`
	Ciphertext   string    `json:"ciphertext"`
	Tag          string    `json:"tag"`
}

// WrappedHeader carries the PBES2 parameters used to derive the key that
// wraps a master key under a password.
type WrappedHeader struct {
	Alg string `json:"alg"`
	P2C int    `json:"p2c"`
	P2S string `json:"p2s"`
}

// WrappedMasterKey is the password-encrypted form of a MasterKey's raw
// secret, the only form in which the secret may ever be persisted.
type WrappedMasterKey struct {
	Header       WrappedHeader `json:"header"`
	EncryptedKey string        `json:"encrypted_key"`
}
