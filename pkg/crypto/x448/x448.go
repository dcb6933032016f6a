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

// Package x448 provides X448 (RFC 7748) key types for Diffie-Hellman key
// agreement. The standard library only ships X25519, so the scalar
// multiplication is delegated to cloudflare/circl.
//
// Example:
//
//	alice, _ := x448.GenerateKey(rand.Reader)
//	bob, _ := x448.GenerateKey(rand.Reader)
//	s1, _ := alice.ECDH(bob.PublicKey())
//	s2, _ := bob.ECDH(alice.PublicKey())
//	// s1 == s2
package x448

import (
	"crypto"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/dh/x448"
)

// Size is the length in bytes of X448 private keys, public keys and shared secrets.
const Size = x448.Size

var (
	// ErrInvalidKeySize is returned when raw key bytes are not Size bytes long
	ErrInvalidKeySize = errors.New("x448: invalid key size")

	// ErrLowOrderPoint is returned when the agreement yields the all-zero secret
	ErrLowOrderPoint = errors.New("x448: low order point")
)

// PublicKey is an X448 public key.
type PublicKey struct {
	key x448.Key
}

// PrivateKey is an X448 private key with its cached public key.
type PrivateKey struct {
	key x448.Key
	pub PublicKey
}

// GenerateKey returns a fresh private key drawn from rand.
func GenerateKey(rand io.Reader) (*PrivateKey, error) {
	var secret [Size]byte
	if _, err := io.ReadFull(rand, secret[:]); err != nil {
		return nil, fmt.Errorf("failed to generate X448 key: %w", err)
	}
	return NewPrivateKey(secret[:])
}

// NewPrivateKey parses a raw 56-byte X448 private scalar.
func NewPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrInvalidKeySize, len(b), Size)
	}
	priv := &PrivateKey{}
	copy(priv.key[:], b)
	x448.KeyGen(&priv.pub.key, &priv.key)
	return priv, nil
}

// NewPublicKey parses a raw 56-byte X448 public key.
func NewPublicKey(b []byte) (*PublicKey, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrInvalidKeySize, len(b), Size)
	}
	pub := &PublicKey{}
	copy(pub.key[:], b)
	return pub, nil
}

// Bytes returns a copy of the raw private scalar.
func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k.key[:])
	return out
}

// PublicKey returns the public key corresponding to k.
func (k *PrivateKey) PublicKey() *PublicKey {
	pub := k.pub
	return &pub
}

// Public implements crypto.Signer-style access to the public half.
func (k *PrivateKey) Public() crypto.PublicKey {
	return k.PublicKey()
}

// Equal reports whether k and x hold the same private scalar.
func (k *PrivateKey) Equal(x crypto.PrivateKey) bool {
	other, ok := x.(*PrivateKey)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare(k.key[:], other.key[:]) == 1
}

// ECDH computes the shared secret between k and the peer public key.
func (k *PrivateKey) ECDH(peer *PublicKey) ([]byte, error) {
	if peer == nil {
		return nil, fmt.Errorf("peer public key cannot be nil")
	}
	var shared x448.Key
	if !x448.Shared(&shared, &k.key, &peer.key) {
		return nil, ErrLowOrderPoint
	}
	return shared[:], nil
}

// Bytes returns a copy of the raw public key.
func (k *PublicKey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k.key[:])
	return out
}

// Equal reports whether k and x are the same public key.
func (k *PublicKey) Equal(x crypto.PublicKey) bool {
	other, ok := x.(*PublicKey)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare(k.key[:], other.key[:]) == 1
}
