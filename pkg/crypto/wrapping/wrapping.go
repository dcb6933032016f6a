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

// Package wrapping implements the JWE key-wrapping primitives of RFC 7518
// section 4: RSAES-PKCS1-v1_5, RSAES-OAEP, AES Key Wrap, AES-GCM key
// wrapping and the PBES2 key derivation.
package wrapping

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"fmt"

	josecipher "github.com/go-jose/go-jose/v4/cipher"
	"golang.org/x/crypto/pbkdf2"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/rand"
)

const (
	// GCMIVSize and GCMTagSize are the sizes used by AxxxGCMKW.
	GCMIVSize  = 12
	GCMTagSize = 16

	// PBES2SaltSize is the length of freshly generated p2s values.
	PBES2SaltSize = 16
)

var (
	ErrInvalidKey      = errors.New("wrapping: invalid key")
	ErrInvalidInput    = errors.New("wrapping: invalid input")
	ErrUnwrapFailed    = errors.New("wrapping: unwrap failed")
	ErrUnsupportedHash = errors.New("wrapping: unsupported hash")
)

// WrapRSA1_5 encrypts a content encryption key with RSAES-PKCS1-v1_5.
func WrapRSA1_5(cek []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	if len(cek) == 0 {
		return nil, fmt.Errorf("%w: empty key material", ErrInvalidInput)
	}
	if publicKey == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, cek)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key material with RSA1_5: %w", err)
	}
	return wrapped, nil
}

// UnwrapRSA1_5 decrypts an RSAES-PKCS1-v1_5 wrapped content encryption key
// of cekSize bytes. On a padding or length failure it returns a random key
// of the same size instead of an error, so the failure only shows up later
// as an authentication failure (RFC 7516 section 11.5).
func UnwrapRSA1_5(wrapped []byte, privateKey *rsa.PrivateKey, cekSize int) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if cekSize <= 0 {
		return nil, fmt.Errorf("%w: key size %d", ErrInvalidInput, cekSize)
	}
	cek, err := rand.Bytes(cekSize)
	if err != nil {
		return nil, err
	}
	if len(wrapped) != privateKey.Size() {
		return cek, nil
	}
	// DecryptPKCS1v15SessionKey leaves cek untouched in constant time when
	// the padding or length is wrong.
	_ = rsa.DecryptPKCS1v15SessionKey(nil, privateKey, wrapped, cek)
	return cek, nil
}

// WrapRSAOAEP encrypts a content encryption key with RSAES-OAEP using hash
// for both the label digest and MGF1 (SHA-1 for "RSA-OAEP").
func WrapRSAOAEP(cek []byte, publicKey *rsa.PublicKey, hash crypto.Hash) ([]byte, error) {
	if len(cek) == 0 {
		return nil, fmt.Errorf("%w: empty key material", ErrInvalidInput)
	}
	if publicKey == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if !hash.Available() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, hash)
	}
	wrapped, err := rsa.EncryptOAEP(hash.New(), rand.Reader, publicKey, cek, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key material with RSA-OAEP: %w", err)
	}
	return wrapped, nil
}

// UnwrapRSAOAEP reverses WrapRSAOAEP.
func UnwrapRSAOAEP(wrapped []byte, privateKey *rsa.PrivateKey, hash crypto.Hash) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if !hash.Available() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, hash)
	}
	cek, err := rsa.DecryptOAEP(hash.New(), nil, privateKey, wrapped, nil)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	return cek, nil
}

// WrapAESKW wraps cek with the RFC 3394 AES Key Wrap using kek, which must
// be 16, 24 or 32 bytes.
func WrapAESKW(cek, kek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(cek) == 0 || len(cek)%8 != 0 {
		return nil, fmt.Errorf("%w: key material must be a non-empty multiple of 8 bytes", ErrInvalidInput)
	}
	wrapped, err := josecipher.KeyWrap(block, cek)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key material with AES-KW: %w", err)
	}
	return wrapped, nil
}

// UnwrapAESKW reverses WrapAESKW and checks the integrity value.
func UnwrapAESKW(wrapped, kek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, ErrUnwrapFailed
	}
	cek, err := josecipher.KeyUnwrap(block, wrapped)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	return cek, nil
}

// WrapAESGCM encrypts cek with AES-GCM under kek and a fresh 96-bit IV. The
// IV and tag are returned separately for the "iv" and "tag" header members.
func WrapAESGCM(cek, kek []byte) (wrapped, iv, tag []byte, err error) {
	aead, err := newGCM(kek)
	if err != nil {
		return nil, nil, nil, err
	}
	iv, err = rand.Bytes(GCMIVSize)
	if err != nil {
		return nil, nil, nil, err
	}
	sealed := aead.Seal(nil, iv, cek, nil)
	split := len(sealed) - GCMTagSize
	return sealed[:split], iv, sealed[split:], nil
}

// UnwrapAESGCM reverses WrapAESGCM.
func UnwrapAESGCM(wrapped, kek, iv, tag []byte) ([]byte, error) {
	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}
	if len(iv) != GCMIVSize || len(tag) != GCMTagSize {
		return nil, ErrUnwrapFailed
	}
	sealed := make([]byte, 0, len(wrapped)+len(tag))
	sealed = append(append(sealed, wrapped...), tag...)
	cek, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	return cek, nil
}

func newGCM(kek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return cipher.NewGCM(block)
}

// DerivePBES2 derives the key-wrapping key of a PBES2 algorithm:
// PBKDF2(password, UTF8(alg) || 0x00 || p2s, p2c, keySize).
func DerivePBES2(password []byte, alg string, p2s []byte, p2c int, hash crypto.Hash, keySize int) ([]byte, error) {
	if p2c <= 0 {
		return nil, fmt.Errorf("%w: iteration count %d", ErrInvalidInput, p2c)
	}
	if !hash.Available() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, hash)
	}
	salt := make([]byte, 0, len(alg)+1+len(p2s))
	salt = append(append(append(salt, alg...), 0), p2s...)
	return pbkdf2.Key(password, salt, p2c, keySize, hash.New), nil
}
