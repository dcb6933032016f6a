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

package keys

import (
	"bytes"
	"fmt"

	"github.com/jeremyhahn/go-josekit/pkg/encoding"
	"github.com/jeremyhahn/go-josekit/pkg/encoding/jwk"
)

// FromPEM imports the first key block of pemText. Private key blocks yield
// a key with private material; "PUBLIC KEY", "RSA PUBLIC KEY" and
// "CERTIFICATE" blocks yield a public-only key.
func FromPEM(pemText []byte, kid string) (*Key, error) {
	return FromPEMWithPassphrase(pemText, kid, nil)
}

// FromPEMWithPassphrase is FromPEM for "ENCRYPTED PRIVATE KEY" blocks.
func FromPEMWithPassphrase(pemText []byte, kid string, passphrase []byte) (*Key, error) {
	decoded, err := encoding.DecodeKeyPEM(pemText, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPemFormat, err)
	}

	var key *Key
	if decoded.Private != nil {
		key, err = FromPrivateKey(decoded.Private, kid)
	} else {
		key, err = FromPublicKey(decoded.Public, kid)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPemFormat, err)
	}
	return key, nil
}

// ToPEM exports key as PKCS#8 "PRIVATE KEY" when includePrivate is set and
// as PKIX "PUBLIC KEY" otherwise. Symmetric keys have no PEM mapping.
func ToPEM(key *Key, includePrivate bool) ([]byte, error) {
	return ToEncryptedPEM(key, includePrivate, nil)
}

// ToEncryptedPEM is ToPEM with an optional passphrase protecting the private
// key block.
func ToEncryptedPEM(key *Key, includePrivate bool, passphrase []byte) ([]byte, error) {
	if key.family == Symmetric {
		return nil, fmt.Errorf("%w: symmetric keys have no PEM representation", ErrUnsupportedKeyFormat)
	}

	var (
		out []byte
		err error
	)
	if includePrivate {
		if key.private == nil {
			return nil, ErrMissingPrivateMaterial
		}
		out, err = encoding.EncodePrivateKeyPEM(key.private, passphrase)
	} else {
		out, err = encoding.EncodePublicKeyPEM(key.public)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyFormat, err)
	}
	return out, nil
}

// FromJWK imports a single JSON Web Key. The key-id is taken from the kid
// member.
func FromJWK(jsonText []byte) (*Key, error) {
	j, err := jwk.Unmarshal(jsonText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJwkFormat, err)
	}
	return fromJWKValue(j)
}

func fromJWKValue(j *jwk.JWK) (*Key, error) {
	if j.IsSymmetric() {
		secret, err := j.ToSymmetricKey()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrJwkFormat, err)
		}
		return NewSymmetric(secret, j.Kid), nil
	}

	var (
		key *Key
		err error
	)
	if j.D != "" {
		priv, perr := j.ToPrivateKey()
		if perr != nil {
			return nil, fmt.Errorf("%w: %w", ErrJwkFormat, perr)
		}
		key, err = FromPrivateKey(priv, j.Kid)
	} else {
		pub, perr := j.ToPublicKey()
		if perr != nil {
			return nil, fmt.Errorf("%w: %w", ErrJwkFormat, perr)
		}
		key, err = FromPublicKey(pub, j.Kid)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJwkFormat, err)
	}
	return key, nil
}

// ToJWK exports key as compact JWK JSON. Public-only keys fail with
// ErrMissingPrivateMaterial when includePrivate is set.
func ToJWK(key *Key, includePrivate bool) ([]byte, error) {
	j, err := key.JWK(includePrivate)
	if err != nil {
		return nil, err
	}
	return j.Marshal()
}

// Load imports key text in either JWK or PEM form. A non-empty kid
// overrides the kid member of a JWK.
func Load(data []byte, kid string, passphrase []byte) (*Key, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		key, err := FromJWK(trimmed)
		if err != nil {
			return nil, err
		}
		if kid != "" {
			key = key.WithKeyID(kid)
		}
		return key, nil
	}
	return FromPEMWithPassphrase(trimmed, kid, passphrase)
}
