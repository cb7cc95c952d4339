package primitives

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/vaultline/lockbox/errs"
)

// aesKWDefaultIV is the standard 8-byte integrity-check value from RFC 3394 §2.2.3.1.
var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// AESKWWrap implements the RFC 3394 AES key wrap algorithm. keyMaterial's
// length must be a multiple of 8 bytes and at least 16.
func AESKWWrap(kek, keyMaterial []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	if len(keyMaterial) < 16 || len(keyMaterial)%8 != 0 {
		return nil, fmt.Errorf("key material length must be a multiple of 8 and at least 16, got %d", len(keyMaterial))
	}

	n := len(keyMaterial) / 8
	r := make([][]byte, n)
	for i := 0; i < n; i++ {
		r[i] = make([]byte, 8)
		copy(r[i], keyMaterial[i*8:(i+1)*8])
	}

	a := make([]byte, 8)
	copy(a, aesKWDefaultIV[:])

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a)
			copy(buf[8:], r[i-1])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(buf[:8]) ^ t
			binary.BigEndian.PutUint64(a, msb)

			copy(r[i-1], buf[8:])
		}
	}

	out := make([]byte, 8+len(keyMaterial))
	copy(out[:8], a)
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i])
	}
	return out, nil
}

// AESKWUnwrap is the inverse of AESKWWrap. Any integrity-check mismatch
// returns errs.ErrCrypto with no further detail, matching this module's
// policy of never distinguishing auth-failure causes.
func AESKWUnwrap(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, errs.Wrap(errs.ErrFormat, "invalid wrapped key length")
	}

	n := len(wrapped)/8 - 1
	a := make([]byte, 8)
	copy(a, wrapped[:8])

	r := make([][]byte, n)
	for i := 0; i < n; i++ {
		r[i] = make([]byte, 8)
		copy(r[i], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(a) ^ t
			binary.BigEndian.PutUint64(buf[:8], msb)
			copy(buf[8:], r[i-1])

			block.Decrypt(buf, buf)

			copy(a, buf[:8])
			copy(r[i-1], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a, aesKWDefaultIV[:]) != 1 {
		return nil, errs.ErrCrypto
	}

	out := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		out = append(out, r[i]...)
	}
	return out, nil
}
