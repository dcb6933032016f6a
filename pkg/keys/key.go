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

// Package keys models the keys a JOSE object can be signed, verified,
// encrypted or decrypted with: symmetric secrets, RSA, elliptic-curve and
// octet-key-pair keys.
//
// A Key is immutable. Operations that change an attribute, such as
// WithKeyID or Public, return a new Key and leave the receiver untouched, so
// a single Key may be shared freely between goroutines.
//
// Example:
//
//	key, err := keys.Generate(keys.EC, "P-256", "k1")
//	jwkJSON, err := keys.ToJWK(key, false)
//	pemText, err := keys.ToPEM(key, true)
package keys

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
	"github.com/jeremyhahn/go-josekit/pkg/encoding/jwk"
)

// Family is a JOSE key family, named by its JWK kty value.
type Family string

const (
	Symmetric Family = "oct"
	RSA       Family = "RSA"
	EC        Family = "EC"
	OKP       Family = "OKP"
)

// Curve identifies the curve of an EC or OKP key, named by its JWK crv value.
type Curve string

const (
	P256      Curve = "P-256"
	Secp256k1 Curve = "secp256k1"
	P384      Curve = "P-384"
	P521      Curve = "P-521"
	X25519    Curve = "X25519"
	Ed25519   Curve = "Ed25519"
	X448      Curve = "X448"
	Ed448     Curve = "Ed448"
)

// ParseFamily resolves a family name such as "EC", "rsa" or "oct".
func ParseFamily(name string) (Family, error) {
	switch strings.ToUpper(name) {
	case "OCT", "SYMMETRIC", "HMAC":
		return Symmetric, nil
	case "RSA":
		return RSA, nil
	case "EC", "ECDSA":
		return EC, nil
	case "OKP":
		return OKP, nil
	}
	return "", fmt.Errorf("%w: key family %q", ErrUnsupportedParameter, name)
}

// ParseCurve resolves a curve name. "P-256K" and "SECP256K1" are accepted
// for secp256k1.
func ParseCurve(name string) (Curve, error) {
	switch strings.ToUpper(name) {
	case "P-256", "P256":
		return P256, nil
	case "SECP256K1", "P-256K":
		return Secp256k1, nil
	case "P-384", "P384":
		return P384, nil
	case "P-521", "P521":
		return P521, nil
	case "X25519":
		return X25519, nil
	case "ED25519":
		return Ed25519, nil
	case "X448":
		return X448, nil
	case "ED448":
		return Ed448, nil
	}
	return "", fmt.Errorf("%w: curve %q", ErrUnsupportedParameter, name)
}

// Family returns the key family the curve belongs to.
func (c Curve) Family() Family {
	switch c {
	case P256, Secp256k1, P384, P521:
		return EC
	case X25519, Ed25519, X448, Ed448:
		return OKP
	}
	return ""
}

// Bits returns the curve's security parameter in bits: the field size for
// EC curves and the key length for OKP curves.
func (c Curve) Bits() int {
	switch c {
	case P256, Secp256k1, X25519, Ed25519:
		return 256
	case P384:
		return 384
	case P521:
		return 521
	case X448:
		return 448
	case Ed448:
		return 456
	}
	return 0
}

// Key is an immutable JOSE key. The zero value is not usable; construct
// keys with NewSymmetric, FromPrivateKey, FromPublicKey, FromPEM, FromJWK
// or Generate.
type Key struct {
	family  Family
	curve   Curve
	id      string
	bits    int
	private crypto.PrivateKey
	public  crypto.PublicKey
	secret  []byte
}

// NewSymmetric wraps a shared secret. The secret is copied and may be empty.
func NewSymmetric(secret []byte, kid string) *Key {
	buf := make([]byte, len(secret))
	copy(buf, secret)
	return &Key{
		family: Symmetric,
		id:     kid,
		bits:   8 * len(buf),
		secret: buf,
	}
}

// FromPrivateKey wraps a Go private key. Supported types are *rsa.PrivateKey,
// *ecdsa.PrivateKey (P-256, P-384, P-521), *secp256k1.PrivateKey,
// ed25519.PrivateKey, ed448.PrivateKey, X25519 *ecdh.PrivateKey and
// *x448.PrivateKey.
func FromPrivateKey(priv crypto.PrivateKey, kid string) (*Key, error) {
	var pub crypto.PublicKey
	switch k := priv.(type) {
	case *rsa.PrivateKey:
		pub = &k.PublicKey
	case *ecdsa.PrivateKey:
		pub = &k.PublicKey
	case *secp256k1.PrivateKey:
		pub = k.PubKey()
	case ed25519.PrivateKey:
		pub = k.Public()
	case ed448.PrivateKey:
		pub = k.Public()
	case *ecdh.PrivateKey:
		pub = k.PublicKey()
	case *x448.PrivateKey:
		pub = k.PublicKey()
	default:
		return nil, fmt.Errorf("%w: private key type %T", ErrUnsupportedKeyFormat, priv)
	}

	key, err := FromPublicKey(pub, kid)
	if err != nil {
		return nil, err
	}
	key.private = priv
	return key, nil
}

// FromPublicKey wraps a Go public key; the result carries no private material.
func FromPublicKey(pub crypto.PublicKey, kid string) (*Key, error) {
	key := &Key{id: kid, public: pub}
	switch k := pub.(type) {
	case *rsa.PublicKey:
		key.family, key.bits = RSA, k.N.BitLen()
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			key.curve = P256
		case elliptic.P384():
			key.curve = P384
		case elliptic.P521():
			key.curve = P521
		default:
			return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKeyFormat, k.Curve.Params().Name)
		}
	case *secp256k1.PublicKey:
		key.curve = Secp256k1
	case ed25519.PublicKey:
		key.curve = Ed25519
	case ed448.PublicKey:
		key.curve = Ed448
	case *ecdh.PublicKey:
		if k.Curve() != ecdh.X25519() {
			return nil, fmt.Errorf("%w: ECDH curve %v", ErrUnsupportedKeyFormat, k.Curve())
		}
		key.curve = X25519
	case *x448.PublicKey:
		key.curve = X448
	default:
		return nil, fmt.Errorf("%w: public key type %T", ErrUnsupportedKeyFormat, pub)
	}
	if key.curve != "" {
		key.family, key.bits = key.curve.Family(), key.curve.Bits()
	}
	return key, nil
}

// Family returns the key family.
func (k *Key) Family() Family { return k.family }

// Curve returns the curve of an EC or OKP key and "" otherwise.
func (k *Key) Curve() Curve { return k.curve }

// ID returns the key-id, possibly empty.
func (k *Key) ID() string { return k.id }

// Bits returns the RSA modulus size, the symmetric key length or the curve size, in bits.
func (k *Key) Bits() int { return k.bits }

// HasPrivate reports whether the key can sign or decrypt. Symmetric keys
// always can.
func (k *Key) HasPrivate() bool {
	return k.family == Symmetric || k.private != nil
}

// PrivateKey returns the Go private key, or nil for public-only and symmetric keys.
func (k *Key) PrivateKey() crypto.PrivateKey { return k.private }

// PublicKey returns the Go public key, or nil for symmetric keys.
func (k *Key) PublicKey() crypto.PublicKey { return k.public }

// Secret returns a copy of the symmetric secret, or nil for asymmetric keys.
func (k *Key) Secret() []byte {
	if k.family != Symmetric {
		return nil
	}
	buf := make([]byte, len(k.secret))
	copy(buf, k.secret)
	return buf
}

// Public returns the public projection of the key. Symmetric keys have no
// public half and are returned unchanged.
func (k *Key) Public() *Key {
	if k.family == Symmetric || k.private == nil {
		return k
	}
	pub := *k
	pub.private = nil
	return &pub
}

// WithKeyID returns a copy of the key carrying a different key-id.
func (k *Key) WithKeyID(kid string) *Key {
	dup := *k
	dup.id = kid
	return &dup
}

// WithKeyID returns a copy of key carrying kid.
func WithKeyID(key *Key, kid string) *Key {
	return key.WithKeyID(kid)
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of the key.
func (k *Key) Thumbprint() (string, error) {
	j, err := k.JWK(k.family == Symmetric)
	if err != nil {
		return "", err
	}
	return j.ThumbprintSHA256()
}

// String describes the key without revealing any material.
func (k *Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.family))
	switch {
	case k.curve != "":
		fmt.Fprintf(&b, " %s", k.curve)
	default:
		fmt.Fprintf(&b, " %d-bit", k.bits)
	}
	if k.HasPrivate() {
		b.WriteString(" private")
	} else {
		b.WriteString(" public")
	}
	if k.id != "" {
		fmt.Fprintf(&b, " kid=%s", k.id)
	}
	return b.String()
}

// JWK returns the key as a JWK value.
func (k *Key) JWK(includePrivate bool) (*jwk.JWK, error) {
	var (
		j   *jwk.JWK
		err error
	)
	switch {
	case k.family == Symmetric:
		if !includePrivate {
			return nil, fmt.Errorf("%w: symmetric keys have no public representation", ErrUnsupportedKeyFormat)
		}
		j = jwk.FromSymmetricKey(k.secret, "")
	case includePrivate:
		if k.private == nil {
			return nil, ErrMissingPrivateMaterial
		}
		j, err = jwk.FromPrivateKey(k.private)
	default:
		j, err = jwk.FromPublicKey(k.public)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKeyFormat, err)
	}
	j.Kid = k.id
	return j, nil
}
