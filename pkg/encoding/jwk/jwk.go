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

// Package jwk converts between Go key types and JSON Web Keys (RFC 7517,
// RFC 7518 section 6, RFC 8037).
package jwk

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
)

var (
	// ErrInvalidJWK is returned when a JWK is malformed or inconsistent
	ErrInvalidJWK = errors.New("jwk: invalid key")

	// ErrUnsupportedKeyType is returned for unknown kty values or Go key types
	ErrUnsupportedKeyType = errors.New("jwk: unsupported key type")

	// ErrUnsupportedCurve is returned for unknown crv values
	ErrUnsupportedCurve = errors.New("jwk: unsupported curve")

	// ErrMissingPrivateKey is returned when private parameters are required but absent
	ErrMissingPrivateKey = errors.New("jwk: missing private key parameters")
)

// JWK represents a JSON Web Key as defined in RFC 7517.
type JWK struct {
	// Common fields (all key types)
	Kty string `json:"kty"`           // Key Type (required)
	Use string `json:"use,omitempty"` // Public Key Use (sig, enc)
	Alg string `json:"alg,omitempty"` // Algorithm
	Kid string `json:"kid,omitempty"` // Key ID

	// RSA public key fields (RFC 7518 Section 6.3.1)
	N string `json:"n,omitempty"` // Modulus (base64url)
	E string `json:"e,omitempty"` // Exponent (base64url)

	// Private exponent (RSA), private scalar (EC) or seed (OKP)
	D string `json:"d,omitempty"`

	// RSA private key fields (RFC 7518 Section 6.3.2)
	P  string `json:"p,omitempty"`  // First Prime Factor
	Q  string `json:"q,omitempty"`  // Second Prime Factor
	DP string `json:"dp,omitempty"` // First Factor CRT Exponent
	DQ string `json:"dq,omitempty"` // Second Factor CRT Exponent
	QI string `json:"qi,omitempty"` // First CRT Coefficient

	// EC and OKP public key fields
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`

	// Symmetric key field (RFC 7518 Section 6.4)
	K string `json:"k,omitempty"`

	KeyOps []string `json:"key_ops,omitempty"`
}

// KeyType represents the key type (kty) parameter values
type KeyType string

const (
	KeyTypeRSA KeyType = "RSA"
	KeyTypeEC  KeyType = "EC"
	KeyTypeOKP KeyType = "OKP" // Octet Key Pair (RFC 8037)
	KeyTypeOct KeyType = "oct" // Symmetric key
)

// Curve represents crv parameter values
type Curve string

const (
	CurveP256      Curve = "P-256"
	CurveSecp256k1 Curve = "secp256k1"
	CurveP384      Curve = "P-384"
	CurveP521      Curve = "P-521"
	CurveEd25519   Curve = "Ed25519"
	CurveX25519    Curve = "X25519"
	CurveEd448     Curve = "Ed448"
	CurveX448      Curve = "X448"

	// CurveP256K is the pre-RFC 8812 name some producers still emit for secp256k1.
	CurveP256K Curve = "P-256K"
)

var b64 = base64.RawURLEncoding

// FromPublicKey creates a JWK from a crypto.PublicKey.
func FromPublicKey(pub crypto.PublicKey) (*JWK, error) {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return &JWK{
			Kty: string(KeyTypeRSA),
			N:   b64.EncodeToString(key.N.Bytes()),
			E:   b64.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}, nil
	case *ecdsa.PublicKey:
		return fromECDSAPublicKey(key)
	case *secp256k1.PublicKey:
		point := key.SerializeUncompressed()
		return &JWK{
			Kty: string(KeyTypeEC),
			Crv: string(CurveSecp256k1),
			X:   b64.EncodeToString(point[1:33]),
			Y:   b64.EncodeToString(point[33:]),
		}, nil
	case ed25519.PublicKey:
		return okp(CurveEd25519, key), nil
	case ed448.PublicKey:
		return okp(CurveEd448, key), nil
	case *ecdh.PublicKey:
		if key.Curve() != ecdh.X25519() {
			return nil, fmt.Errorf("%w: ECDH curve %v", ErrUnsupportedCurve, key.Curve())
		}
		return okp(CurveX25519, key.Bytes()), nil
	case *x448.PublicKey:
		return okp(CurveX448, key.Bytes()), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
	}
}

// FromPrivateKey creates a JWK from a crypto.PrivateKey including the
// private parameters.
func FromPrivateKey(priv crypto.PrivateKey) (*JWK, error) {
	switch key := priv.(type) {
	case *rsa.PrivateKey:
		return fromRSAPrivateKey(key)
	case *ecdsa.PrivateKey:
		jwk, err := fromECDSAPublicKey(&key.PublicKey)
		if err != nil {
			return nil, err
		}
		d, err := key.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
		}
		jwk.D = b64.EncodeToString(d)
		return jwk, nil
	case *secp256k1.PrivateKey:
		jwk, _ := FromPublicKey(key.PubKey())
		jwk.D = b64.EncodeToString(key.Serialize())
		return jwk, nil
	case ed25519.PrivateKey:
		jwk := okp(CurveEd25519, key.Public().(ed25519.PublicKey))
		jwk.D = b64.EncodeToString(key.Seed())
		return jwk, nil
	case ed448.PrivateKey:
		jwk := okp(CurveEd448, key.Public().(ed448.PublicKey))
		jwk.D = b64.EncodeToString(key.Seed())
		return jwk, nil
	case *ecdh.PrivateKey:
		if key.Curve() != ecdh.X25519() {
			return nil, fmt.Errorf("%w: ECDH curve %v", ErrUnsupportedCurve, key.Curve())
		}
		jwk := okp(CurveX25519, key.PublicKey().Bytes())
		jwk.D = b64.EncodeToString(key.Bytes())
		return jwk, nil
	case *x448.PrivateKey:
		jwk := okp(CurveX448, key.PublicKey().Bytes())
		jwk.D = b64.EncodeToString(key.Bytes())
		return jwk, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, priv)
	}
}

// FromSymmetricKey creates an oct JWK from raw key bytes. Zero-length keys
// are representable.
func FromSymmetricKey(key []byte, alg string) *JWK {
	return &JWK{
		Kty: string(KeyTypeOct),
		K:   b64.EncodeToString(key),
		Alg: alg,
	}
}

// ToPublicKey converts the JWK to a crypto.PublicKey.
func (jwk *JWK) ToPublicKey() (crypto.PublicKey, error) {
	switch KeyType(jwk.Kty) {
	case KeyTypeRSA:
		return jwk.toRSAPublicKey()
	case KeyTypeEC:
		switch Curve(jwk.Crv) {
		case CurveSecp256k1, CurveP256K:
			return jwk.toSecp256k1PublicKey()
		default:
			return jwk.toECDSAPublicKey()
		}
	case KeyTypeOKP:
		x, err := jwk.decode("x", jwk.X)
		if err != nil {
			return nil, err
		}
		switch Curve(jwk.Crv) {
		case CurveEd25519:
			if len(x) != ed25519.PublicKeySize {
				return nil, fmt.Errorf("%w: Ed25519 public key size %d", ErrInvalidJWK, len(x))
			}
			return ed25519.PublicKey(x), nil
		case CurveEd448:
			if len(x) != ed448.PublicKeySize {
				return nil, fmt.Errorf("%w: Ed448 public key size %d", ErrInvalidJWK, len(x))
			}
			return ed448.PublicKey(x), nil
		case CurveX25519:
			pub, err := ecdh.X25519().NewPublicKey(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
			}
			return pub, nil
		case CurveX448:
			pub, err := x448.NewPublicKey(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
			}
			return pub, nil
		default:
			return nil, fmt.Errorf("%w: OKP curve %q", ErrUnsupportedCurve, jwk.Crv)
		}
	case KeyTypeOct:
		return nil, fmt.Errorf("%w: oct keys have no public half", ErrUnsupportedKeyType)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, jwk.Kty)
	}
}

// ToPrivateKey converts the JWK to a crypto.PrivateKey. The private
// parameters must be consistent with the public ones.
func (jwk *JWK) ToPrivateKey() (crypto.PrivateKey, error) {
	if jwk.Kty == string(KeyTypeOct) {
		return nil, fmt.Errorf("%w: use ToSymmetricKey for oct keys", ErrUnsupportedKeyType)
	}
	if jwk.D == "" {
		return nil, ErrMissingPrivateKey
	}
	pub, err := jwk.ToPublicKey()
	if err != nil {
		return nil, err
	}
	d, err := jwk.decode("d", jwk.D)
	if err != nil {
		return nil, err
	}

	switch key := pub.(type) {
	case *rsa.PublicKey:
		return jwk.toRSAPrivateKey(key, d)
	case *ecdsa.PublicKey:
		priv, err := ecdsa.ParseRawPrivateKey(key.Curve, d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
		}
		if !priv.PublicKey.Equal(key) {
			return nil, fmt.Errorf("%w: EC private key does not match public point", ErrInvalidJWK)
		}
		return priv, nil
	case *secp256k1.PublicKey:
		if len(d) != 32 {
			return nil, fmt.Errorf("%w: secp256k1 private key size %d", ErrInvalidJWK, len(d))
		}
		priv := secp256k1.PrivKeyFromBytes(d)
		if !priv.PubKey().IsEqual(key) {
			return nil, fmt.Errorf("%w: secp256k1 private key does not match public point", ErrInvalidJWK)
		}
		return priv, nil
	case ed25519.PublicKey:
		if len(d) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: Ed25519 seed size %d", ErrInvalidJWK, len(d))
		}
		priv := ed25519.NewKeyFromSeed(d)
		if !bytes.Equal(priv.Public().(ed25519.PublicKey), key) {
			return nil, fmt.Errorf("%w: Ed25519 seed does not match public key", ErrInvalidJWK)
		}
		return priv, nil
	case ed448.PublicKey:
		if len(d) != ed448.SeedSize {
			return nil, fmt.Errorf("%w: Ed448 seed size %d", ErrInvalidJWK, len(d))
		}
		priv := ed448.NewKeyFromSeed(d)
		if !bytes.Equal(priv.Public().(ed448.PublicKey), key) {
			return nil, fmt.Errorf("%w: Ed448 seed does not match public key", ErrInvalidJWK)
		}
		return priv, nil
	case *ecdh.PublicKey:
		priv, err := ecdh.X25519().NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
		}
		if !priv.PublicKey().Equal(key) {
			return nil, fmt.Errorf("%w: X25519 private key does not match public key", ErrInvalidJWK)
		}
		return priv, nil
	case *x448.PublicKey:
		priv, err := x448.NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
		}
		if !priv.PublicKey().Equal(key) {
			return nil, fmt.Errorf("%w: X448 private key does not match public key", ErrInvalidJWK)
		}
		return priv, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
}

// ToSymmetricKey extracts the symmetric key bytes from an oct JWK. An
// empty k decodes to a zero-length key.
func (jwk *JWK) ToSymmetricKey() ([]byte, error) {
	if jwk.Kty != string(KeyTypeOct) {
		return nil, fmt.Errorf("%w: JWK is not a symmetric key (kty=%s)", ErrUnsupportedKeyType, jwk.Kty)
	}
	k, err := b64.Strict().DecodeString(jwk.K)
	if err != nil {
		return nil, fmt.Errorf("%w: k: %v", ErrInvalidJWK, err)
	}
	return k, nil
}

// Marshal returns the JSON encoding of the JWK.
func (jwk *JWK) Marshal() ([]byte, error) {
	return json.Marshal(jwk)
}

// MarshalIndent returns the indented JSON encoding of the JWK.
func (jwk *JWK) MarshalIndent(prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(jwk, prefix, indent)
}

// Unmarshal parses the JSON-encoded data and stores the result in a JWK.
func Unmarshal(data []byte) (*JWK, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	if jwk.Kty == "" {
		return nil, fmt.Errorf("%w: missing kty", ErrInvalidJWK)
	}
	return &jwk, nil
}

// IsPrivate returns true if the JWK contains private key parameters.
func (jwk *JWK) IsPrivate() bool {
	return jwk.D != "" || jwk.Kty == string(KeyTypeOct)
}

// IsSymmetric returns true if the JWK represents a symmetric key.
func (jwk *JWK) IsSymmetric() bool {
	return jwk.Kty == string(KeyTypeOct)
}

// Public returns a copy of the JWK with every private parameter removed.
func (jwk *JWK) Public() *JWK {
	pub := *jwk
	pub.D, pub.P, pub.Q, pub.DP, pub.DQ, pub.QI = "", "", "", "", "", ""
	pub.KeyOps = append([]string(nil), jwk.KeyOps...)
	return &pub
}

func okp(crv Curve, x []byte) *JWK {
	return &JWK{
		Kty: string(KeyTypeOKP),
		Crv: string(crv),
		X:   b64.EncodeToString(x),
	}
}

func (jwk *JWK) decode(field, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: missing required field: %s", ErrInvalidJWK, field)
	}
	b, err := b64.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidJWK, field, err)
	}
	return b, nil
}

// Helper functions for RSA keys

func fromRSAPrivateKey(key *rsa.PrivateKey) (*JWK, error) {
	if len(key.Primes) != 2 {
		return nil, fmt.Errorf("%w: multi-prime RSA keys are not representable", ErrUnsupportedKeyType)
	}
	if key.Precomputed.Dp == nil {
		key = cloneRSAPrivateKey(key)
		key.Precompute()
	}

	return &JWK{
		Kty: string(KeyTypeRSA),
		N:   b64.EncodeToString(key.N.Bytes()),
		E:   b64.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		D:   b64.EncodeToString(key.D.Bytes()),
		P:   b64.EncodeToString(key.Primes[0].Bytes()),
		Q:   b64.EncodeToString(key.Primes[1].Bytes()),
		DP:  b64.EncodeToString(key.Precomputed.Dp.Bytes()),
		DQ:  b64.EncodeToString(key.Precomputed.Dq.Bytes()),
		QI:  b64.EncodeToString(key.Precomputed.Qinv.Bytes()),
	}, nil
}

func cloneRSAPrivateKey(key *rsa.PrivateKey) *rsa.PrivateKey {
	return &rsa.PrivateKey{
		PublicKey: key.PublicKey,
		D:         key.D,
		Primes:    key.Primes,
	}
}

func (jwk *JWK) toRSAPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := jwk.decode("n", jwk.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := jwk.decode("e", jwk.E)
	if err != nil {
		return nil, err
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > 1<<31-1 || e.Int64() < 2 {
		return nil, fmt.Errorf("%w: RSA exponent out of range", ErrInvalidJWK)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

func (jwk *JWK) toRSAPrivateKey(pub *rsa.PublicKey, d []byte) (*rsa.PrivateKey, error) {
	p, err := jwk.decode("p", jwk.P)
	if err != nil {
		return nil, err
	}
	q, err := jwk.decode("q", jwk.Q)
	if err != nil {
		return nil, err
	}

	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(d),
		Primes:    []*big.Int{new(big.Int).SetBytes(p), new(big.Int).SetBytes(q)},
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	priv.Precompute()
	return priv, nil
}

// Helper functions for EC keys

func fromECDSAPublicKey(key *ecdsa.PublicKey) (*JWK, error) {
	crv, err := curveName(key.Curve)
	if err != nil {
		return nil, err
	}
	point, err := key.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	size := (len(point) - 1) / 2

	return &JWK{
		Kty: string(KeyTypeEC),
		Crv: string(crv),
		X:   b64.EncodeToString(point[1 : 1+size]),
		Y:   b64.EncodeToString(point[1+size:]),
	}, nil
}

func (jwk *JWK) ecPoint(size int) ([]byte, error) {
	x, err := jwk.decode("x", jwk.X)
	if err != nil {
		return nil, err
	}
	y, err := jwk.decode("y", jwk.Y)
	if err != nil {
		return nil, err
	}
	if len(x) != size || len(y) != size {
		return nil, fmt.Errorf("%w: %s coordinates must be %d bytes", ErrInvalidJWK, jwk.Crv, size)
	}
	point := make([]byte, 0, 1+2*size)
	point = append(point, 0x04)
	point = append(point, x...)
	return append(point, y...), nil
}

func (jwk *JWK) toECDSAPublicKey() (*ecdsa.PublicKey, error) {
	curve, err := ellipticCurve(jwk.Crv)
	if err != nil {
		return nil, err
	}
	point, err := jwk.ecPoint((curve.Params().BitSize + 7) / 8)
	if err != nil {
		return nil, err
	}
	pub, err := ecdsa.ParseUncompressedPublicKey(curve, point)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	return pub, nil
}

func (jwk *JWK) toSecp256k1PublicKey() (*secp256k1.PublicKey, error) {
	point, err := jwk.ecPoint(32)
	if err != nil {
		return nil, err
	}
	pub, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}
	return pub, nil
}

func curveName(curve elliptic.Curve) (Curve, error) {
	switch curve {
	case elliptic.P256():
		return CurveP256, nil
	case elliptic.P384():
		return CurveP384, nil
	case elliptic.P521():
		return CurveP521, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve.Params().Name)
	}
}

func ellipticCurve(name string) (elliptic.Curve, error) {
	switch Curve(name) {
	case CurveP256:
		return elliptic.P256(), nil
	case CurveP384:
		return elliptic.P384(), nil
	case CurveP521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: EC curve %q", ErrUnsupportedCurve, name)
	}
}
