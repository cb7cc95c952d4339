package masterkey

import (
	"encoding/json"

	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/internal/codec"
	"github.com/vaultline/lockbox/internal/primitives"
)

// MasterKey owns the root HMAC secret and the two subkeys derived from it:
// kek, used only inside authenticated AES-KW wrapping (randomized via
// caller-supplied IV/CEK), and indexHMAC, used only for deterministic
// blinding. The two are never interchanged — one requires fresh nonces per
// use, the other requires determinism, and reusing a single key across both
// purposes would undermine whichever property the caller needed.
//
// The raw master secret is held in memory only in its extractable form
// needed to re-wrap it under a new password; it is never written to storage
// except inside a WrappedMasterKey.
type MasterKey struct {
	master    []byte
	kek       []byte
	indexHMAC []byte
}

// Generate creates a new MasterKey from fresh random material.
func Generate() (*MasterKey, error) {
	secret, err := primitives.RandomBytes(masterKeySize)
	if err != nil {
		return nil, err
	}
	return newFromSecret(secret)
}

// newFromSecret derives kek and indexHMAC from secret and takes ownership
// of it as the MasterKey's master field.
func newFromSecret(secret []byte) (*MasterKey, error) {
	if len(secret) != masterKeySize {
		return nil, ErrInvalidKeySize
	}

	mk := &MasterKey{master: secret}
	mk.kek = primitives.HMACSHA256(mk.master, kekLabel)
	mk.indexHMAC = primitives.HMACSHA256(mk.master, hmacLabel)
	return mk, nil
}

// Close zeroizes every key this MasterKey holds. Callers that unwrap or
// generate a MasterKey should defer Close once it is no longer needed.
func (mk *MasterKey) Close() {
	if mk == nil {
		return
	}
	codec.Zero(mk.master)
	codec.Zero(mk.kek)
	codec.Zero(mk.indexHMAC)
}

// Encrypt produces a DocumentJWE for data: a fresh 32-byte CEK wraps data
// under AES-GCM with a fresh 12-byte IV, and the CEK itself is wrapped
// under the master key's KEK with AES-KW.
func (mk *MasterKey) Encrypt(data []byte) (*JWE, error) {
	cekRaw, err := primitives.RandomBytes(masterKeySize)
	if err != nil {
		return nil, err
	}
	cek := codec.NewSecureBytes(cekRaw)
	defer cek.Release()

	encryptedKey, err := primitives.AESKWWrap(mk.kek, cek.Bytes())
	if err != nil {
		return nil, err
	}

	iv, err := primitives.RandomBytes(primitives.GCMNonceSize)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, err := primitives.AESGCMEncrypt(cek.Bytes(), iv, data)
	if err != nil {
		return nil, err
	}

	return &JWE{
		Unprotected:  JWEHeader{Alg: AlgDocumentKW, Enc: AlgDocumentEnc},
		EncryptedKey: codec.EncodeToString(encryptedKey),
		IV:           codec.EncodeToString(iv),
		Ciphertext:   codec.EncodeToString(ciphertext),
		Tag:          codec.EncodeToString(tag),
	}, nil
}

// EncryptObject JSON-serializes obj and encrypts the result.
func (mk *MasterKey) EncryptObject(obj any) (*JWE, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidArgument, "failed to marshal document: "+err.Error())
	}
	return mk.Encrypt(data)
}

// Decrypt recovers the plaintext body of a DocumentJWE. Any field that is
// missing or wrongly shaped returns ErrMalformedJWE; any AEAD or key-wrap
// authentication failure returns errs.ErrCrypto with no further detail.
func (mk *MasterKey) Decrypt(jwe *JWE) ([]byte, error) {
	if jwe == nil {
		return nil, ErrMalformedJWE
	}
	if jwe.Unprotected.Alg != AlgDocumentKW || jwe.Unprotected.Enc != AlgDocumentEnc {
		return nil, ErrUnsupportedAlgorithm
	}

	encryptedKey, err := codec.DecodeString(jwe.EncryptedKey)
	if err != nil {
		return nil, err
	}
	iv, err := codec.DecodeString(jwe.IV)
	if err != nil {
		return nil, err
	}
	ciphertext, err := codec.DecodeString(jwe.Ciphertext)
	if err != nil {
		return nil, err
	}
	tag, err := codec.DecodeString(jwe.Tag)
	if err != nil {
		return nil, err
	}
	if len(iv) != primitives.GCMNonceSize || len(tag) != primitives.GCMTagSize {
		return nil, ErrMalformedJWE
	}

	cekRaw, err := primitives.AESKWUnwrap(mk.kek, encryptedKey)
	if err != nil {
		return nil, err
	}
	cek := codec.NewSecureBytes(cekRaw)
	defer cek.Release()

	return primitives.AESGCMDecrypt(cek.Bytes(), iv, ciphertext, tag)
}

// DecryptObject decrypts jwe and JSON-parses the result into a generic
// object. The document codec is responsible for validating the shape of
// the returned value beyond "valid JSON object".
func (mk *MasterKey) DecryptObject(jwe *JWE) (map[string]any, error) {
	data, err := mk.Decrypt(jwe)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, ErrDecryptedDocumentNotObject
	}
	return obj, nil
}

// Blind returns the deterministic base64url-encoded HMAC-SHA-256 of data
// under this master key's index HMAC subkey. Identical input under the
// same key always yields identical output; this is what lets the server
// match blinded tokens for equality without learning plaintext.
func (mk *MasterKey) Blind(data []byte) string {
	return codec.EncodeToString(primitives.HMACSHA256(mk.indexHMAC, data))
}

// BlindString is Blind over the UTF-8 encoding of s.
func (mk *MasterKey) BlindString(s string) string {
	return mk.Blind([]byte(s))
}
