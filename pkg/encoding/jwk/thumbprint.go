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

package jwk

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/json"
	"fmt"
)

// ThumbprintSHA256 computes the SHA-256 JWK thumbprint as defined in RFC 7638.
//
// The thumbprint is computed from the required members of a JWK representing
// the key, in lexicographic order, with no whitespace or line breaks.
//
// For RSA keys: {"e":"...","kty":"RSA","n":"..."}
// For EC keys: {"crv":"...","kty":"EC","x":"...","y":"..."}
// For OKP keys: {"crv":"...","kty":"OKP","x":"..."}
// For oct keys: {"k":"...","kty":"oct"}
func ThumbprintSHA256(key crypto.PublicKey) (string, error) {
	return Thumbprint(key, crypto.SHA256)
}

// Thumbprint computes a JWK thumbprint of a public key using the given hash.
func Thumbprint(key crypto.PublicKey, hashFunc crypto.Hash) (string, error) {
	jwk, err := FromPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to convert key to JWK: %w", err)
	}
	return jwk.Thumbprint(hashFunc)
}

// Thumbprint computes the JWK thumbprint for this key using the specified
// hash function. Private members never contribute, so a private JWK and its
// public projection share a thumbprint.
func (jwk *JWK) Thumbprint(hashFunc crypto.Hash) (string, error) {
	fields, err := jwk.requiredThumbprintFields()
	if err != nil {
		return "", err
	}
	if !hashFunc.Available() {
		return "", fmt.Errorf("unsupported hash function: %v", hashFunc)
	}

	// encoding/json sorts map keys and emits no whitespace.
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to serialize for thumbprint: %w", err)
	}

	h := hashFunc.New()
	h.Write(canonical)
	return b64.EncodeToString(h.Sum(nil)), nil
}

// ThumbprintSHA256 is a convenience method that computes the SHA-256 thumbprint.
func (jwk *JWK) ThumbprintSHA256() (string, error) {
	return jwk.Thumbprint(crypto.SHA256)
}

// requiredThumbprintFields returns the members listed in RFC 7638 Section 3.2.
func (jwk *JWK) requiredThumbprintFields() (map[string]string, error) {
	switch KeyType(jwk.Kty) {
	case KeyTypeRSA:
		if jwk.E == "" || jwk.N == "" {
			return nil, fmt.Errorf("%w: RSA JWK missing required fields for thumbprint", ErrInvalidJWK)
		}
		return map[string]string{"e": jwk.E, "kty": jwk.Kty, "n": jwk.N}, nil

	case KeyTypeEC:
		if jwk.Crv == "" || jwk.X == "" || jwk.Y == "" {
			return nil, fmt.Errorf("%w: EC JWK missing required fields for thumbprint", ErrInvalidJWK)
		}
		return map[string]string{"crv": jwk.Crv, "kty": jwk.Kty, "x": jwk.X, "y": jwk.Y}, nil

	case KeyTypeOKP:
		if jwk.Crv == "" || jwk.X == "" {
			return nil, fmt.Errorf("%w: OKP JWK missing required fields for thumbprint", ErrInvalidJWK)
		}
		return map[string]string{"crv": jwk.Crv, "kty": jwk.Kty, "x": jwk.X}, nil

	case KeyTypeOct:
		return map[string]string{"k": jwk.K, "kty": jwk.Kty}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, jwk.Kty)
	}
}
