package masterkey

import (
	"github.com/vaultline/lockbox/internal/codec"
	"github.com/vaultline/lockbox/internal/primitives"
)

// WrapWithPassword produces a WrappedMasterKey: a fresh random 32-byte salt
// derives an AES-KW key from password via PBKDF2-HMAC-SHA-512 at
// DefaultPBKDF2Iterations rounds, which wraps this MasterKey's raw secret.
//
// password is zeroized before this method returns; callers must not reuse
// the slice afterward.
func (mk *MasterKey) WrapWithPassword(password []byte) (*WrappedMasterKey, error) {
	pw := codec.NewSecureBytes(password)
	defer pw.Release()

	salt, err := primitives.RandomBytes(saltSize)
	if err != nil {
		return nil, err
	}

	unwrapKey := codec.NewSecureBytes(primitives.PBKDF2HMACSHA512(pw.Bytes(), salt, DefaultPBKDF2Iterations))
	defer unwrapKey.Release()

	encryptedKey, err := primitives.AESKWWrap(unwrapKey.Bytes(), mk.master)
	if err != nil {
		return nil, err
	}

	return &WrappedMasterKey{
		Header: WrappedHeader{
			Alg: AlgPasswordWrap,
			P2C: DefaultPBKDF2Iterations,
			P2S: codec.EncodeToString(salt),
		},
		EncryptedKey: codec.EncodeToString(encryptedKey),
	}, nil
}

// UnwrapWithPassword recovers a MasterKey from a WrappedMasterKey given the
// password it was wrapped under. A structural defect in w returns
// ErrMalformedWrappedKey; a wrong password or tampered ciphertext returns
// errs.ErrCrypto.
//
// password is zeroized before this function returns; callers must not reuse
// the slice afterward.
func UnwrapWithPassword(password []byte, w *WrappedMasterKey) (*MasterKey, error) {
	pw := codec.NewSecureBytes(password)
	defer pw.Release()

	if w == nil {
		return nil, ErrMalformedWrappedKey
	}
	if w.Header.Alg != AlgPasswordWrap {
		return nil, ErrUnsupportedAlgorithm
	}
	if w.Header.P2C <= 0 {
		return nil, ErrMalformedWrappedKey
	}

	salt, err := codec.DecodeString(w.Header.P2S)
	if err != nil {
		return nil, err
	}
	encryptedKey, err := codec.DecodeString(w.EncryptedKey)
	if err != nil {
		return nil, err
	}

	unwrapKey := codec.NewSecureBytes(primitives.PBKDF2HMACSHA512(pw.Bytes(), salt, w.Header.P2C))
	defer unwrapKey.Release()

	secret, err := primitives.AESKWUnwrap(unwrapKey.Bytes(), encryptedKey)
	if err != nil {
		return nil, err
	}

	return newFromSecret(secret)
}
