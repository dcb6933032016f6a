// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-josekit.
//
// go-josekit is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package wrapping

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestKeyPair generates an RSA key pair for testing
func generateTestKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestWrapUnwrapRSAOAEP(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	cek := []byte("0123456789abcdef0123456789abcdef")

	for _, h := range []crypto.Hash{crypto.SHA1, crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		t.Run(h.String(), func(t *testing.T) {
			wrapped, err := WrapRSAOAEP(cek, &privateKey.PublicKey, h)
			require.NoError(t, err)
			assert.Len(t, wrapped, privateKey.Size())

			unwrapped, err := UnwrapRSAOAEP(wrapped, privateKey, h)
			require.NoError(t, err)
			assert.Equal(t, cek, unwrapped)

			wrapped[10] ^= 0xff
			_, err = UnwrapRSAOAEP(wrapped, privateKey, h)
			assert.ErrorIs(t, err, ErrUnwrapFailed)
		})
	}
}

func TestWrapRSAOAEPInvalidInput(t *testing.T) {
	privateKey := generateTestKeyPair(t)

	_, err := WrapRSAOAEP(nil, &privateKey.PublicKey, crypto.SHA256)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = WrapRSAOAEP([]byte("k"), nil, crypto.SHA256)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = UnwrapRSAOAEP([]byte("x"), nil, crypto.SHA256)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = WrapRSAOAEP(make([]byte, 512), &privateKey.PublicKey, crypto.SHA256)
	assert.Error(t, err, "key material larger than the modulus")
}

func TestRSA1_5(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	cek := []byte("0123456789abcdef")

	wrapped, err := WrapRSA1_5(cek, &privateKey.PublicKey)
	require.NoError(t, err)

	unwrapped, err := UnwrapRSA1_5(wrapped, privateKey, len(cek))
	require.NoError(t, err)
	assert.Equal(t, cek, unwrapped)

	t.Run("bad padding yields random key", func(t *testing.T) {
		garbage := make([]byte, privateKey.Size())
		garbage[5] = 1
		got, err := UnwrapRSA1_5(garbage, privateKey, 16)
		require.NoError(t, err)
		assert.Len(t, got, 16)
		assert.NotEqual(t, cek, got)
	})

	t.Run("wrong length yields random key", func(t *testing.T) {
		got, err := UnwrapRSA1_5([]byte("short"), privateKey, 32)
		require.NoError(t, err)
		assert.Len(t, got, 32)
	})

	t.Run("wrong key size yields random key", func(t *testing.T) {
		got, err := UnwrapRSA1_5(wrapped, privateKey, 32)
		require.NoError(t, err)
		assert.Len(t, got, 32)
		assert.NotEqual(t, cek, got[:16])
	})
}

// RFC 3394 section 4.1: 128 bits of key data with a 128-bit KEK.
func TestAESKWVector(t *testing.T) {
	kek, _ := hex.DecodeString("000102030405060708090A0B0C0D0E0F")
	cek, _ := hex.DecodeString("00112233445566778899AABBCCDDEEFF")
	want, _ := hex.DecodeString("1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5")

	wrapped, err := WrapAESKW(cek, kek)
	require.NoError(t, err)
	assert.Equal(t, want, wrapped)

	unwrapped, err := UnwrapAESKW(wrapped, kek)
	require.NoError(t, err)
	assert.Equal(t, cek, unwrapped)

	wrapped[0] ^= 1
	_, err = UnwrapAESKW(wrapped, kek)
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

func TestAESKWInvalidInput(t *testing.T) {
	_, err := WrapAESKW(make([]byte, 16), make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = WrapAESKW(make([]byte, 15), make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = UnwrapAESKW(make([]byte, 16), make([]byte, 16))
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

func TestAESGCM(t *testing.T) {
	kek := make([]byte, 32)
	cek := []byte("an AES-256 content encryption k!")

	wrapped, iv, tag, err := WrapAESGCM(cek, kek)
	require.NoError(t, err)
	assert.Len(t, iv, GCMIVSize)
	assert.Len(t, tag, GCMTagSize)
	assert.Len(t, wrapped, len(cek))

	unwrapped, err := UnwrapAESGCM(wrapped, kek, iv, tag)
	require.NoError(t, err)
	assert.Equal(t, cek, unwrapped)

	_, iv2, _, err := WrapAESGCM(cek, kek)
	require.NoError(t, err)
	assert.NotEqual(t, iv, iv2, "every wrap draws a fresh IV")

	tag[0] ^= 1
	_, err = UnwrapAESGCM(wrapped, kek, iv, tag)
	assert.ErrorIs(t, err, ErrUnwrapFailed)

	_, err = UnwrapAESGCM(wrapped, kek, iv[:8], tag)
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

// RFC 7517 appendix C.4 derives this key-wrapping key for PBES2-HS256+A128KW.
func TestDerivePBES2(t *testing.T) {
	password := []byte("Thus from my lips, by yours, my sin is purged.")
	p2s := []byte{217, 96, 147, 112, 150, 117, 70, 247, 127, 8, 155, 137, 174, 42, 80, 215}
	want := []byte{110, 171, 169, 92, 129, 92, 109, 117, 233, 242, 116, 233, 170, 14, 24, 75}

	kek, err := DerivePBES2(password, "PBES2-HS256+A128KW", p2s, 4096, crypto.SHA256, 16)
	require.NoError(t, err)
	assert.Equal(t, want, kek)

	_, err = DerivePBES2(password, "PBES2-HS256+A128KW", p2s, 0, crypto.SHA256, 16)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
