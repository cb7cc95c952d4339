package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultline/lockbox/errs"
)

func TestAESKWRoundTrip(t *testing.T) {
	kek, err := RandomBytes(32)
	require.NoError(t, err)
	cek, err := RandomBytes(32)
	require.NoError(t, err)

	wrapped, err := AESKWWrap(kek, cek)
	require.NoError(t, err)
	assert.Len(t, wrapped, len(cek)+8)

	unwrapped, err := AESKWUnwrap(kek, wrapped)
	require.NoError(t, err)
	assert.Equal(t, cek, unwrapped)
}

func TestAESKWWrongKeyFails(t *testing.T) {
	kek1, err := RandomBytes(32)
	require.NoError(t, err)
	kek2, err := RandomBytes(32)
	require.NoError(t, err)
	cek, err := RandomBytes(32)
	require.NoError(t, err)

	wrapped, err := AESKWWrap(kek1, cek)
	require.NoError(t, err)

	_, err = AESKWUnwrap(kek2, wrapped)
	assert.ErrorIs(t, err, errs.ErrCrypto)
}

func TestAESKWTamperDetection(t *testing.T) {
	kek, err := RandomBytes(32)
	require.NoError(t, err)
	cek, err := RandomBytes(32)
	require.NoError(t, err)

	wrapped, err := AESKWWrap(kek, cek)
	require.NoError(t, err)

	tampered := append([]byte(nil), wrapped...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = AESKWUnwrap(kek, tampered)
	assert.ErrorIs(t, err, errs.ErrCrypto)
}
