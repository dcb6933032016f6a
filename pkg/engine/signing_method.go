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

package engine

import (
	"crypto"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	_ "crypto/sha512"
	"errors"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp256k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jeremyhahn/go-josekit/pkg/jwa"
)

var (
	errInvalidKey = errors.New("engine: invalid key type")

	// SigningMethodES256K is ECDSA over secp256k1 with SHA-256 (RFC 8812).
	SigningMethodES256K = &signingMethodES256K{}

	// SigningMethodEdDSA signs with Ed25519 or Ed448 depending on the key.
	SigningMethodEdDSA = &signingMethodEdDSA{}
)

func init() {
	jwt.RegisterSigningMethod(jwa.ES256K, func() jwt.SigningMethod {
		return SigningMethodES256K
	})
}

// signingMethodHMAC is HMAC with no lower bound on the key length; an
// empty secret is a valid key.
type signingMethodHMAC struct {
	alg  string
	hash crypto.Hash
}

func (m *signingMethodHMAC) Alg() string { return m.alg }

func (m *signingMethodHMAC) Sign(signingString string, key interface{}) ([]byte, error) {
	secret, ok := key.([]byte)
	if !ok {
		return nil, errInvalidKey
	}
	mac := hmac.New(m.hash.New, secret)
	mac.Write([]byte(signingString))
	return mac.Sum(nil), nil
}

func (m *signingMethodHMAC) Verify(signingString string, sig []byte, key interface{}) error {
	expected, err := m.Sign(signingString, key)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, sig) {
		return jwt.ErrSignatureInvalid
	}
	return nil
}

type signingMethodES256K struct{}

func (m *signingMethodES256K) Alg() string { return jwa.ES256K }

// Sign returns the 64-byte R || S encoding.
func (m *signingMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return nil, errInvalidKey
	}
	digest := sha256.Sum256([]byte(signingString))
	compact := secp256k1ecdsa.SignCompact(priv, digest[:], false)
	return compact[1:], nil
}

func (m *signingMethodES256K) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*secp256k1.PublicKey)
	if !ok {
		return errInvalidKey
	}
	if len(sig) != 64 {
		return jwt.ErrSignatureInvalid
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return jwt.ErrSignatureInvalid
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return jwt.ErrSignatureInvalid
	}
	digest := sha256.Sum256([]byte(signingString))
	if !secp256k1ecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return jwt.ErrSignatureInvalid
	}
	return nil
}

// signingMethodEdDSA delegates Ed25519 to golang-jwt and handles Ed448.
type signingMethodEdDSA struct{}

func (m *signingMethodEdDSA) Alg() string { return jwa.EdDSA }

func (m *signingMethodEdDSA) Sign(signingString string, key interface{}) ([]byte, error) {
	switch k := key.(type) {
	case ed25519.PrivateKey:
		return jwt.SigningMethodEdDSA.Sign(signingString, k)
	case ed448.PrivateKey:
		if len(k) != ed448.PrivateKeySize {
			return nil, errInvalidKey
		}
		return ed448.Sign(k, []byte(signingString), ""), nil
	}
	return nil, errInvalidKey
}

func (m *signingMethodEdDSA) Verify(signingString string, sig []byte, key interface{}) error {
	switch k := key.(type) {
	case ed25519.PublicKey:
		if len(k) != ed25519.PublicKeySize {
			return errInvalidKey
		}
		return jwt.SigningMethodEdDSA.Verify(signingString, sig, k)
	case ed448.PublicKey:
		if len(k) != ed448.PublicKeySize || len(sig) != ed448.SignatureSize {
			return jwt.ErrSignatureInvalid
		}
		if !ed448.Verify(k, []byte(signingString), sig, "") {
			return jwt.ErrSignatureInvalid
		}
		return nil
	}
	return errInvalidKey
}

// signingMethods maps every signing descriptor except none to its primitive.
var signingMethods = map[string]jwt.SigningMethod{
	jwa.HS256:  &signingMethodHMAC{jwa.HS256, crypto.SHA256},
	jwa.HS384:  &signingMethodHMAC{jwa.HS384, crypto.SHA384},
	jwa.HS512:  &signingMethodHMAC{jwa.HS512, crypto.SHA512},
	jwa.RS256:  jwt.SigningMethodRS256,
	jwa.RS384:  jwt.SigningMethodRS384,
	jwa.RS512:  jwt.SigningMethodRS512,
	jwa.PS256:  jwt.SigningMethodPS256,
	jwa.PS384:  jwt.SigningMethodPS384,
	jwa.PS512:  jwt.SigningMethodPS512,
	jwa.ES256:  jwt.SigningMethodES256,
	jwa.ES384:  jwt.SigningMethodES384,
	jwa.ES512:  jwt.SigningMethodES512,
	jwa.ES256K: SigningMethodES256K,
	jwa.EdDSA:  SigningMethodEdDSA,
}
