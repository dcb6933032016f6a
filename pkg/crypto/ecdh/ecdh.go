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

// Package ecdh provides the Elliptic Curve Diffie-Hellman key agreement used
// by the JWE "ECDH-ES" family (RFC 7518 section 4.6).
//
// This package supports the NIST P-256, P-384 and P-521 curves, secp256k1,
// X25519 and X448, and derives key-encryption keys with the Concat KDF of
// NIST SP 800-56A.
//
// Example usage:
//
//	// Sender: ephemeral key on the recipient's curve
//	ephemeral, _ := ecdh.GenerateEphemeral(recipientPub)
//	z, _ := ecdh.DeriveSharedSecret(ephemeral, recipientPub)
//	kek, _ := ecdh.DeriveKey(z, "A128KW", nil, nil, 16)
//
//	// Recipient
//	z, _ = ecdh.DeriveSharedSecret(recipientPriv, ephemeralPub)
package ecdh

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	_ "crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	josecipher "github.com/go-jose/go-jose/v4/cipher"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/rand"
	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
)

var (
	ErrCurveMismatch      = errors.New("ecdh: curve mismatch")
	ErrUnsupportedKeyType = errors.New("ecdh: unsupported key type")
)

// DeriveSharedSecret performs ECDH key agreement between a private key and
// a public key, returning the shared secret Z.
//
// Both keys must be on the same curve. Supported pairs are *ecdsa keys on
// P-256, P-384 or P-521, *secp256k1 keys, X25519 *ecdh keys and *x448 keys.
// For NIST curves and secp256k1 Z is the x-coordinate of the shared point.
func DeriveSharedSecret(privateKey crypto.PrivateKey, publicKey crypto.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if publicKey == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}

	switch priv := privateKey.(type) {
	case *ecdsa.PrivateKey:
		pub, ok := publicKey.(*ecdsa.PublicKey)
		if !ok || priv.Curve != pub.Curve {
			return nil, fmt.Errorf("%w: %s private key with %T", ErrCurveMismatch, priv.Curve.Params().Name, publicKey)
		}
		ecdhPriv, err := priv.ECDH()
		if err != nil {
			return nil, fmt.Errorf("failed to convert private key: %w", err)
		}
		ecdhPub, err := pub.ECDH()
		if err != nil {
			return nil, fmt.Errorf("failed to convert public key: %w", err)
		}
		return agree(ecdhPriv, ecdhPub)

	case *ecdh.PrivateKey:
		pub, ok := publicKey.(*ecdh.PublicKey)
		if !ok || priv.Curve() != pub.Curve() {
			return nil, fmt.Errorf("%w: %v private key with %T", ErrCurveMismatch, priv.Curve(), publicKey)
		}
		return agree(priv, pub)

	case *secp256k1.PrivateKey:
		pub, ok := publicKey.(*secp256k1.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: secp256k1 private key with %T", ErrCurveMismatch, publicKey)
		}
		return secp256k1.GenerateSharedSecret(priv, pub), nil

	case *x448.PrivateKey:
		pub, ok := publicKey.(*x448.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: X448 private key with %T", ErrCurveMismatch, publicKey)
		}
		return priv.ECDH(pub)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, privateKey)
}

func agree(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	z, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("ECDH operation failed: %w", err)
	}
	return z, nil
}

// GenerateEphemeral creates a fresh private key on the curve of publicKey.
func GenerateEphemeral(publicKey crypto.PublicKey) (crypto.PrivateKey, error) {
	switch pub := publicKey.(type) {
	case *ecdsa.PublicKey:
		if _, err := curveToECDH(pub.Curve); err != nil {
			return nil, err
		}
		return ecdsa.GenerateKey(pub.Curve, rand.Reader)
	case *ecdh.PublicKey:
		return pub.Curve().GenerateKey(rand.Reader)
	case *secp256k1.PublicKey:
		return secp256k1.GeneratePrivateKeyFromRand(rand.Reader)
	case *x448.PublicKey:
		return x448.GenerateKey(rand.Reader)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, publicKey)
}

// DeriveKey derives keySize bytes from the shared secret with the Concat
// KDF over SHA-256, as RFC 7518 section 4.6.2 specifies. alg is the "enc"
// value for direct key agreement and the "alg" value when the result wraps
// a content encryption key; apu and apv are the decoded "apu" and "apv"
// header members.
//
// Example:
//
//	cek, _ := DeriveKey(z, "A256GCM", nil, nil, 32)
//	kek, _ := DeriveKey(z, "ECDH-ES+A128KW", []byte("Alice"), []byte("Bob"), 16)
func DeriveKey(sharedSecret []byte, alg string, apu, apv []byte, keySize int) ([]byte, error) {
	if sharedSecret == nil {
		return nil, fmt.Errorf("shared secret cannot be nil")
	}
	if keySize <= 0 {
		return nil, fmt.Errorf("key length must be positive, got %d", keySize)
	}

	supPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(supPubInfo, uint32(keySize)*8)

	reader := josecipher.NewConcatKDF(crypto.SHA256, sharedSecret,
		lengthPrefixed([]byte(alg)), lengthPrefixed(apu), lengthPrefixed(apv), supPubInfo, []byte{})

	key := make([]byte, keySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("Concat KDF derivation failed: %w", err)
	}
	return key, nil
}

func lengthPrefixed(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)
	return out
}

// curveToECDH maps elliptic.Curve to ecdh.Curve
func curveToECDH(curve elliptic.Curve) (ecdh.Curve, error) {
	switch curve.Params().Name {
	case "P-256":
		return ecdh.P256(), nil
	case "P-384":
		return ecdh.P384(), nil
	case "P-521":
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKeyType, curve.Params().Name)
	}
}
