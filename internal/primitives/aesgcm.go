package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/vaultline/lockbox/errs"
)

// GCMNonceSize is the required IV length for AES-GCM in this module (96 bits).
const GCMNonceSize = 12

// GCMTagSize is the AEAD authentication tag length (128 bits).
const GCMTagSize = 16

// AESGCMEncrypt encrypts plaintext under key with the given 12-byte iv and
// empty associated data, returning ciphertext and the 16-byte tag split
// apart (the wire format keeps them in separate fields).
func AESGCMEncrypt(key, iv, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(iv) != GCMNonceSize {
		return nil, nil, fmt.Errorf("iv must be %d bytes, got %d", GCMNonceSize, len(iv))
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - GCMTagSize
	ciphertext = sealed[:split]
	tag = sealed[split:]
	return ciphertext, tag, nil
}

// AESGCMDecrypt decrypts ciphertext/tag under key with the given iv and
// empty associated data. Any authentication failure returns errs.ErrCrypto
// with no further detail.
func AESGCMDecrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	if len(iv) != GCMNonceSize {
		return nil, errs.Wrap(errs.ErrFormat, "invalid iv length")
	}
	if len(tag) != GCMTagSize {
		return nil, errs.Wrap(errs.ErrFormat, "invalid tag length")
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, errs.ErrCrypto
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
