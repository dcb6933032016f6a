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
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PEM block types
const (
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypeRSAPublicKey        = "RSA PUBLIC KEY"
	PEMTypeECPrivateKey        = "EC PRIVATE KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypeCertificate         = "CERTIFICATE"
)

// DecodedKey is the key material carried by a single PEM block. Private is
// nil for public keys and certificates.
type DecodedKey struct {
	Type    string
	Private crypto.PrivateKey
	Public  crypto.PublicKey
}

// EncodePrivateKeyPEM encodes a private key to a PKCS#8 PEM block.
// If a password is provided, the key is encrypted and the block type is
// "ENCRYPTED PRIVATE KEY"; otherwise it is "PRIVATE KEY".
//
// Example:
//
//	pemData, err := encoding.EncodePrivateKeyPEM(privateKey, nil)
func EncodePrivateKeyPEM(privateKey crypto.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	der, err := EncodePKCS8(privateKey, password)
	if err != nil {
		return nil, err
	}

	blockType := PEMTypePrivateKey
	if len(password) > 0 {
		blockType = PEMTypeEncryptedPrivateKey
	}
	return encodeBlock(blockType, der)
}

// DecodePrivateKeyPEM decodes the first PEM block in data to a private key.
// Accepts PKCS#8 (plain or encrypted), PKCS#1 and SEC1 blocks.
//
// Example:
//
//	key, err := encoding.DecodePrivateKeyPEM(pemData, []byte("password"))
//	rsaKey := key.(*rsa.PrivateKey)
func DecodePrivateKeyPEM(data []byte, password []byte) (crypto.PrivateKey, error) {
	decoded, err := DecodeKeyPEM(data, password)
	if err != nil {
		return nil, err
	}
	if decoded.Private == nil {
		return nil, fmt.Errorf("%w: %q block holds no private key", ErrInvalidPrivateKey, decoded.Type)
	}
	return decoded.Private, nil
}

// EncodePublicKeyPEM encodes a public key to a PKIX "PUBLIC KEY" block.
//
// Example:
//
//	pemData, err := encoding.EncodePublicKeyPEM(publicKey)
func EncodePublicKeyPEM(publicKey crypto.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, ErrInvalidPublicKey
	}

	der, err := EncodePublicKeyPKIX(publicKey)
	if err != nil {
		return nil, err
	}
	return encodeBlock(PEMTypePublicKey, der)
}

// DecodePublicKeyPEM decodes the first PEM block in data to a public key.
// Private key blocks yield their public half and certificates yield the
// subject public key.
func DecodePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	decoded, err := DecodeKeyPEM(data, nil)
	if err != nil {
		return nil, err
	}
	return decoded.Public, nil
}

// DecodeCertificatePEM decodes PEM encoded data to an X.509 certificate.
func DecodeCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, err := firstBlock(data)
	if err != nil {
		return nil, err
	}
	if block.Type != PEMTypeCertificate {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPEMType, block.Type)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse certificate: %v", ErrInvalidData, err)
	}
	return cert, nil
}

// DecodeKeyPEM decodes the first PEM block in data into its key material,
// dispatching on the block type.
func DecodeKeyPEM(data []byte, password []byte) (*DecodedKey, error) {
	block, err := firstBlock(data)
	if err != nil {
		return nil, err
	}

	decoded := &DecodedKey{Type: block.Type}
	switch block.Type {
	case PEMTypePrivateKey:
		decoded.Private, err = DecodePKCS8(block.Bytes, nil)
	case PEMTypeEncryptedPrivateKey:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		decoded.Private, err = DecodePKCS8(block.Bytes, password)
	case PEMTypeRSAPrivateKey:
		decoded.Private, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case PEMTypeECPrivateKey:
		decoded.Private, err = DecodeSEC1(block.Bytes)
	case PEMTypePublicKey:
		decoded.Public, err = DecodePublicKeyPKIX(block.Bytes)
	case PEMTypeRSAPublicKey:
		decoded.Public, err = x509.ParsePKCS1PublicKey(block.Bytes)
	case PEMTypeCertificate:
		var cert *x509.Certificate
		if cert, err = x509.ParseCertificate(block.Bytes); err == nil {
			decoded.Public = cert.PublicKey
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPEMType, block.Type)
	}
	if err != nil {
		if isSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if decoded.Private != nil {
		if decoded.Public, err = PublicKeyOf(decoded.Private); err != nil {
			return nil, err
		}
	}
	if decoded.Public == nil {
		return nil, ErrInvalidPublicKey
	}
	return decoded, nil
}

func firstBlock(data []byte) (*pem.Block, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}
	return block, nil
}

func encodeBlock(blockType string, der []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}
	return buf.Bytes(), nil
}

func isSentinel(err error) bool {
	for _, s := range []error{ErrInvalidData, ErrInvalidPassword, ErrUnsupportedKeyType, ErrInvalidPrivateKey} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// PublicKeyOf returns the public half of a private key.
func PublicKeyOf(privateKey crypto.PrivateKey) (crypto.PublicKey, error) {
	switch k := privateKey.(type) {
	case nil:
		return nil, ErrInvalidPrivateKey
	case *secp256k1.PrivateKey:
		return k.PubKey(), nil
	case interface{ Public() crypto.PublicKey }:
		return k.Public(), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, privateKey)
}
