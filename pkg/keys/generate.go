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
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"slices"
	"strconv"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/rand"
	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
)

const (
	// DefaultRSABits is the recommended RSA modulus size.
	DefaultRSABits = 2048

	// DefaultSymmetricBits is the default shared secret size.
	DefaultSymmetricBits = 256

	// DefaultECCurve and DefaultOKPCurve are used when no curve is requested.
	DefaultECCurve  = P256
	DefaultOKPCurve = X25519
)

var (
	// RSASizes lists the supported RSA modulus sizes. Sizes below 2048 bits
	// are weak and exist for testing verifiers against them.
	RSASizes = []int{512, 1024, 2048, 3072, 4096}

	// SymmetricSizes lists the supported shared secret sizes in bits.
	SymmetricSizes = []int{128, 192, 256, 384, 512}

	// ECCurves lists the supported elliptic curves.
	ECCurves = []Curve{P256, Secp256k1, P384, P521}

	// OKPCurves lists the supported octet key pair curves.
	OKPCurves = []Curve{X25519, Ed25519, X448, Ed448}
)

// Generate creates a fresh key of the given family. parameter is the bit
// length for RSA and Symmetric and the curve name for EC and OKP; an empty
// parameter selects the family default. An empty kid is replaced with a
// random UUID.
func Generate(family Family, parameter string, kid string) (*Key, error) {
	switch family {
	case RSA, Symmetric:
		bits := DefaultRSABits
		if family == Symmetric {
			bits = DefaultSymmetricBits
		}
		if parameter != "" {
			n, err := strconv.Atoi(parameter)
			if err != nil {
				return nil, fmt.Errorf("%w: bit length %q", ErrUnsupportedParameter, parameter)
			}
			bits = n
		}
		if family == RSA {
			return GenerateRSA(bits, kid)
		}
		return GenerateSymmetric(bits, kid)

	case EC, OKP:
		curve := DefaultECCurve
		if family == OKP {
			curve = DefaultOKPCurve
		}
		if parameter != "" {
			c, err := ParseCurve(parameter)
			if err != nil {
				return nil, err
			}
			curve = c
		}
		if curve.Family() != family {
			return nil, fmt.Errorf("%w: curve %s is not a %s curve", ErrUnsupportedParameter, curve, family)
		}
		return GenerateCurve(curve, kid)
	}
	return nil, fmt.Errorf("%w: key family %q", ErrUnsupportedParameter, family)
}

// GenerateRSA creates an RSA key with one of RSASizes as modulus size.
func GenerateRSA(bits int, kid string) (*Key, error) {
	if !slices.Contains(RSASizes, bits) {
		return nil, fmt.Errorf("%w: RSA size %d", ErrUnsupportedParameter, bits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return FromPrivateKey(priv, defaultKeyID(kid))
}

// GenerateSymmetric creates a random shared secret with one of SymmetricSizes bits.
func GenerateSymmetric(bits int, kid string) (*Key, error) {
	if !slices.Contains(SymmetricSizes, bits) {
		return nil, fmt.Errorf("%w: symmetric size %d", ErrUnsupportedParameter, bits)
	}
	secret, err := rand.Bytes(bits / 8)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	return NewSymmetric(secret, defaultKeyID(kid)), nil
}

// GenerateEC creates an EC key. curve must be one of ECCurves.
func GenerateEC(curve Curve, kid string) (*Key, error) {
	return generateFamily(EC, curve, kid)
}

// GenerateOKP creates an octet key pair. curve must be one of OKPCurves.
func GenerateOKP(curve Curve, kid string) (*Key, error) {
	return generateFamily(OKP, curve, kid)
}

func generateFamily(family Family, curve Curve, kid string) (*Key, error) {
	if curve.Family() != family {
		return nil, fmt.Errorf("%w: %s is not a %s curve", ErrUnsupportedParameter, curve, family)
	}
	return GenerateCurve(curve, kid)
}

// GenerateCurve creates an EC or OKP key on the given curve.
func GenerateCurve(curve Curve, kid string) (*Key, error) {
	var (
		priv crypto.PrivateKey
		err  error
	)
	switch curve {
	case P256:
		priv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case P384:
		priv, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case P521:
		priv, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case Secp256k1:
		priv, err = secp256k1.GeneratePrivateKeyFromRand(rand.Reader)
	case Ed25519:
		_, priv, err = ed25519.GenerateKey(rand.Reader)
	case Ed448:
		_, priv, err = ed448.GenerateKey(rand.Reader)
	case X25519:
		priv, err = ecdh.X25519().GenerateKey(rand.Reader)
	case X448:
		priv, err = x448.GenerateKey(rand.Reader)
	default:
		return nil, fmt.Errorf("%w: curve %q", ErrUnsupportedParameter, curve)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", curve, err)
	}
	return FromPrivateKey(priv, defaultKeyID(kid))
}

func defaultKeyID(kid string) string {
	if kid != "" {
		return kid
	}
	return uuid.NewString()
}
