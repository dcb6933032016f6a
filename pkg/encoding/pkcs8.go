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

package encoding

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
)

// EncodePKCS8 encodes a private key to ASN.1 DER PKCS#8 format.
// If a password is provided, the key will be encrypted (PBES2).
//
// Supported key types: *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey,
// X25519 *ecdh.PrivateKey, *secp256k1.PrivateKey, ed448.PrivateKey and
// *x448.PrivateKey. Password protection is limited to the types crypto/x509
// can marshal.
//
// Example:
//
//	der, err := encoding.EncodePKCS8(privateKey, []byte("mypassword"))
func EncodePKCS8(privateKey crypto.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	if namedCurveKey(privateKey) {
		if len(password) > 0 {
			return nil, fmt.Errorf("%w: encrypted PKCS#8 for %T", ErrUnsupportedKeyType, privateKey)
		}
		der, err := marshalNamedCurvePKCS8(privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal PKCS#8: %w", err)
		}
		return der, nil
	}

	der, err := pkcs8.MarshalPrivateKey(privateKey, password, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal PKCS#8: %v", ErrUnsupportedKeyType, err)
	}
	return der, nil
}

// DecodePKCS8 decodes ASN.1 DER PKCS#8 encoded data to a private key.
// If the data is encrypted, a password must be provided.
//
// Example:
//
//	key, err := encoding.DecodePKCS8(derData, nil)
//	edKey := key.(ed448.PrivateKey)
func DecodePKCS8(data []byte, password []byte) (crypto.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	if len(password) == 0 {
		if key, ok, err := parseNamedCurvePKCS8(data); ok {
			return key, err
		}
	}

	key, err := pkcs8.ParsePKCS8PrivateKey(data, password)
	if err != nil {
		if len(password) > 0 && isPasswordError(err) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("%w: failed to parse PKCS#8: %v", ErrInvalidData, err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, ErrInvalidPrivateKey
	}
	return privKey, nil
}

// EncodePublicKeyPKIX encodes a public key to ASN.1 DER PKIX format
// (SubjectPublicKeyInfo).
func EncodePublicKeyPKIX(publicKey crypto.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, ErrInvalidPublicKey
	}

	if namedCurveKey(publicKey) {
		der, err := marshalNamedCurvePKIX(publicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal PKIX public key: %w", err)
		}
		return der, nil
	}

	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal PKIX public key: %v", ErrUnsupportedKeyType, err)
	}
	return der, nil
}

// DecodePublicKeyPKIX decodes ASN.1 DER PKIX encoded data to a public key.
//
// Example:
//
//	key, err := encoding.DecodePublicKeyPKIX(derData)
//	rsaPub := key.(*rsa.PublicKey)
func DecodePublicKeyPKIX(data []byte) (crypto.PublicKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	if key, ok, err := parseNamedCurvePKIX(data); ok {
		return key, err
	}

	pubKey, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse PKIX public key: %v", ErrInvalidData, err)
	}
	return pubKey, nil
}

// DecodeSEC1 decodes an RFC 5915 "EC PRIVATE KEY" structure, including
// secp256k1 keys that crypto/x509 rejects.
func DecodeSEC1(data []byte) (crypto.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}
	if isSecp256k1SEC1(data) {
		return parseSecp256k1SEC1(data)
	}
	key, err := x509.ParseECPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse EC private key: %v", ErrInvalidData, err)
	}
	return key, nil
}

// isPasswordError checks if an error from youmark/pkcs8 relates to a wrong password.
func isPasswordError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"incorrect password", "asn1: structure error", "tags don't match"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
