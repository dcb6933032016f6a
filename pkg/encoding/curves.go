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
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
)

// Object identifiers for key algorithms crypto/x509 does not handle.
var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	oidPublicKeyX448  = asn1.ObjectIdentifier{1, 3, 101, 111}
	oidPublicKeyEd448 = asn1.ObjectIdentifier{1, 3, 101, 113}
)

// pkcs8Info mirrors the PrivateKeyInfo structure of RFC 5208.
type pkcs8Info struct {
	Version    int
	Algo       pkix.AlgorithmIdentifier
	PrivateKey []byte
}

// spkiInfo mirrors SubjectPublicKeyInfo of RFC 5280.
type spkiInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// sec1Key mirrors the ECPrivateKey structure of RFC 5915.
type sec1Key struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

// namedCurveKey reports whether key is handled by the custom codecs below.
func namedCurveKey(key any) bool {
	switch key.(type) {
	case *secp256k1.PrivateKey, *secp256k1.PublicKey,
		ed448.PrivateKey, ed448.PublicKey,
		*x448.PrivateKey, *x448.PublicKey:
		return true
	}
	return false
}

func marshalNamedCurvePKCS8(key crypto.PrivateKey) ([]byte, error) {
	var info pkcs8Info
	switch k := key.(type) {
	case *secp256k1.PrivateKey:
		params, err := asn1.Marshal(oidCurveSecp256k1)
		if err != nil {
			return nil, err
		}
		inner, err := marshalSecp256k1SEC1(k, false)
		if err != nil {
			return nil, err
		}
		info.Algo = pkix.AlgorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: asn1.RawValue{FullBytes: params},
		}
		info.PrivateKey = inner
	case ed448.PrivateKey:
		inner, err := asn1.Marshal(k.Seed())
		if err != nil {
			return nil, err
		}
		info.Algo = pkix.AlgorithmIdentifier{Algorithm: oidPublicKeyEd448}
		info.PrivateKey = inner
	case *x448.PrivateKey:
		inner, err := asn1.Marshal(k.Bytes())
		if err != nil {
			return nil, err
		}
		info.Algo = pkix.AlgorithmIdentifier{Algorithm: oidPublicKeyX448}
		info.PrivateKey = inner
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return asn1.Marshal(info)
}

// parseNamedCurvePKCS8 returns (nil, false, nil) when der is a PKCS#8
// structure for an algorithm crypto/x509 understands.
func parseNamedCurvePKCS8(der []byte) (crypto.PrivateKey, bool, error) {
	var info pkcs8Info
	if rest, err := asn1.Unmarshal(der, &info); err != nil || len(rest) != 0 {
		return nil, false, nil
	}

	switch {
	case info.Algo.Algorithm.Equal(oidPublicKeyEd448):
		var seed []byte
		if _, err := asn1.Unmarshal(info.PrivateKey, &seed); err != nil {
			return nil, true, fmt.Errorf("%w: Ed448 private key: %v", ErrInvalidData, err)
		}
		if len(seed) != ed448.SeedSize {
			return nil, true, fmt.Errorf("%w: Ed448 seed length %d", ErrInvalidData, len(seed))
		}
		return ed448.NewKeyFromSeed(seed), true, nil

	case info.Algo.Algorithm.Equal(oidPublicKeyX448):
		var scalar []byte
		if _, err := asn1.Unmarshal(info.PrivateKey, &scalar); err != nil {
			return nil, true, fmt.Errorf("%w: X448 private key: %v", ErrInvalidData, err)
		}
		priv, err := x448.NewPrivateKey(scalar)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return priv, true, nil

	case info.Algo.Algorithm.Equal(oidPublicKeyECDSA):
		var curve asn1.ObjectIdentifier
		if _, err := asn1.Unmarshal(info.Algo.Parameters.FullBytes, &curve); err != nil {
			return nil, false, nil
		}
		if !curve.Equal(oidCurveSecp256k1) {
			return nil, false, nil
		}
		priv, err := parseSecp256k1SEC1(info.PrivateKey)
		return priv, true, err
	}
	return nil, false, nil
}

func marshalNamedCurvePKIX(key crypto.PublicKey) ([]byte, error) {
	var info spkiInfo
	switch k := key.(type) {
	case *secp256k1.PublicKey:
		params, err := asn1.Marshal(oidCurveSecp256k1)
		if err != nil {
			return nil, err
		}
		info.Algorithm = pkix.AlgorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: asn1.RawValue{FullBytes: params},
		}
		point := k.SerializeUncompressed()
		info.PublicKey = asn1.BitString{Bytes: point, BitLength: 8 * len(point)}
	case ed448.PublicKey:
		info.Algorithm = pkix.AlgorithmIdentifier{Algorithm: oidPublicKeyEd448}
		info.PublicKey = asn1.BitString{Bytes: k, BitLength: 8 * len(k)}
	case *x448.PublicKey:
		raw := k.Bytes()
		info.Algorithm = pkix.AlgorithmIdentifier{Algorithm: oidPublicKeyX448}
		info.PublicKey = asn1.BitString{Bytes: raw, BitLength: 8 * len(raw)}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return asn1.Marshal(info)
}

func parseNamedCurvePKIX(der []byte) (crypto.PublicKey, bool, error) {
	var info spkiInfo
	if rest, err := asn1.Unmarshal(der, &info); err != nil || len(rest) != 0 {
		return nil, false, nil
	}
	raw := info.PublicKey.RightAlign()

	switch {
	case info.Algorithm.Algorithm.Equal(oidPublicKeyEd448):
		if len(raw) != ed448.PublicKeySize {
			return nil, true, fmt.Errorf("%w: Ed448 public key length %d", ErrInvalidData, len(raw))
		}
		return ed448.PublicKey(raw), true, nil

	case info.Algorithm.Algorithm.Equal(oidPublicKeyX448):
		pub, err := x448.NewPublicKey(raw)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return pub, true, nil

	case info.Algorithm.Algorithm.Equal(oidPublicKeyECDSA):
		var curve asn1.ObjectIdentifier
		if _, err := asn1.Unmarshal(info.Algorithm.Parameters.FullBytes, &curve); err != nil {
			return nil, false, nil
		}
		if !curve.Equal(oidCurveSecp256k1) {
			return nil, false, nil
		}
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, true, fmt.Errorf("%w: secp256k1 point: %v", ErrInvalidData, err)
		}
		return pub, true, nil
	}
	return nil, false, nil
}

// marshalSecp256k1SEC1 encodes an RFC 5915 ECPrivateKey. withCurve embeds
// the curve OID, required when the structure stands alone as "EC PRIVATE KEY".
func marshalSecp256k1SEC1(key *secp256k1.PrivateKey, withCurve bool) ([]byte, error) {
	point := key.PubKey().SerializeUncompressed()
	sec1 := sec1Key{
		Version:    1,
		PrivateKey: key.Serialize(),
		PublicKey:  asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	}
	if withCurve {
		sec1.NamedCurveOID = oidCurveSecp256k1
	}
	return asn1.Marshal(sec1)
}

func parseSecp256k1SEC1(der []byte) (*secp256k1.PrivateKey, error) {
	var sec1 sec1Key
	if _, err := asn1.Unmarshal(der, &sec1); err != nil {
		return nil, fmt.Errorf("%w: secp256k1 private key: %v", ErrInvalidData, err)
	}
	if sec1.Version != 1 || len(sec1.PrivateKey) == 0 || len(sec1.PrivateKey) > 32 {
		return nil, fmt.Errorf("%w: malformed secp256k1 private key", ErrInvalidData)
	}
	return secp256k1.PrivKeyFromBytes(sec1.PrivateKey), nil
}

// isSecp256k1SEC1 reports whether an "EC PRIVATE KEY" block names secp256k1.
func isSecp256k1SEC1(der []byte) bool {
	var sec1 sec1Key
	if _, err := asn1.Unmarshal(der, &sec1); err != nil {
		return false
	}
	return sec1.NamedCurveOID.Equal(oidCurveSecp256k1)
}
