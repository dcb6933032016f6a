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

// Package jwa holds the static descriptor of every JOSE algorithm the
// toolkit understands (RFC 7518, RFC 8037, RFC 8812): the key family and
// curves it needs, and the sizes of the keys, signatures, IVs and tags it
// produces.
package jwa

import (
	"crypto"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

// ErrUnsupportedAlgorithm is returned for alg/enc values with no descriptor.
var ErrUnsupportedAlgorithm = errors.New("jwa: unsupported algorithm")

// Kind classifies descriptors by the header member they appear in.
type Kind int

const (
	// Signature algorithms appear in a JWS "alg".
	Signature Kind = iota + 1
	// KeyManagement algorithms appear in a JWE "alg".
	KeyManagement
	// ContentEncryption algorithms appear in a JWE "enc".
	ContentEncryption
)

func (k Kind) String() string {
	switch k {
	case Signature:
		return "signature"
	case KeyManagement:
		return "key management"
	case ContentEncryption:
		return "content encryption"
	}
	return "unknown"
}

// Algorithm names.
const (
	None = "none"

	HS256  = "HS256"
	HS384  = "HS384"
	HS512  = "HS512"
	RS256  = "RS256"
	RS384  = "RS384"
	RS512  = "RS512"
	PS256  = "PS256"
	PS384  = "PS384"
	PS512  = "PS512"
	ES256  = "ES256"
	ES384  = "ES384"
	ES512  = "ES512"
	ES256K = "ES256K"
	EdDSA  = "EdDSA"

	RSA1_5       = "RSA1_5"
	RSAOAEP      = "RSA-OAEP"
	RSAOAEP256   = "RSA-OAEP-256"
	RSAOAEP384   = "RSA-OAEP-384"
	RSAOAEP512   = "RSA-OAEP-512"
	A128KW       = "A128KW"
	A192KW       = "A192KW"
	A256KW       = "A256KW"
	A128GCMKW    = "A128GCMKW"
	A192GCMKW    = "A192GCMKW"
	A256GCMKW    = "A256GCMKW"
	Direct       = "dir"
	ECDHES       = "ECDH-ES"
	ECDHESA128KW = "ECDH-ES+A128KW"
	ECDHESA192KW = "ECDH-ES+A192KW"
	ECDHESA256KW = "ECDH-ES+A256KW"
	PBES2HS256   = "PBES2-HS256+A128KW"
	PBES2HS384   = "PBES2-HS384+A192KW"
	PBES2HS512   = "PBES2-HS512+A256KW"

	A128CBCHS256 = "A128CBC-HS256"
	A192CBCHS384 = "A192CBC-HS384"
	A256CBCHS512 = "A256CBC-HS512"
	A128GCM      = "A128GCM"
	A192GCM      = "A192GCM"
	A256GCM      = "A256GCM"
)

// Descriptor is the static metadata of one algorithm.
type Descriptor struct {
	Name string
	Kind Kind

	// Families lists the key families the algorithm accepts; empty for none.
	Families []keys.Family

	// Curves restricts EC/OKP keys; empty means any curve of an accepted family.
	Curves []keys.Curve

	// Hash is the digest used for signing, OAEP, PBES2 or the CBC-HMAC tag.
	Hash crypto.Hash

	// KeyBytes is the symmetric key size: the AES key-wrap key for *KW
	// algorithms and the CEK for content encryption. Zero when the key size
	// is unconstrained.
	KeyBytes int

	// SignatureBytes is the fixed signature length, zero when it depends on
	// the key (RSA) or is absent (none).
	SignatureBytes int

	// IVBytes and TagBytes apply to content encryption and GCM key wrapping.
	IVBytes  int
	TagBytes int

	// NoneClass marks the unsigned "none" algorithm.
	NoneClass bool
}

// AcceptsFamily reports whether keys of family f may be used with the algorithm.
func (d Descriptor) AcceptsFamily(f keys.Family) bool {
	return slices.Contains(d.Families, f)
}

// AcceptsCurve reports whether a key on curve c may be used with the algorithm.
func (d Descriptor) AcceptsCurve(c keys.Curve) bool {
	return len(d.Curves) == 0 || slices.Contains(d.Curves, c)
}

var (
	oct    = []keys.Family{keys.Symmetric}
	rsaFam = []keys.Family{keys.RSA}
	ecFam  = []keys.Family{keys.EC}
	okpFam = []keys.Family{keys.OKP}
	ecdhes = []keys.Family{keys.EC, keys.OKP}

	agreementCurves = []keys.Curve{keys.P256, keys.Secp256k1, keys.P384, keys.P521, keys.X25519, keys.X448}
)

var table = []Descriptor{
	{Name: None, Kind: Signature, NoneClass: true},

	{Name: HS256, Kind: Signature, Families: oct, Hash: crypto.SHA256, SignatureBytes: 32},
	{Name: HS384, Kind: Signature, Families: oct, Hash: crypto.SHA384, SignatureBytes: 48},
	{Name: HS512, Kind: Signature, Families: oct, Hash: crypto.SHA512, SignatureBytes: 64},
	{Name: RS256, Kind: Signature, Families: rsaFam, Hash: crypto.SHA256},
	{Name: RS384, Kind: Signature, Families: rsaFam, Hash: crypto.SHA384},
	{Name: RS512, Kind: Signature, Families: rsaFam, Hash: crypto.SHA512},
	{Name: PS256, Kind: Signature, Families: rsaFam, Hash: crypto.SHA256},
	{Name: PS384, Kind: Signature, Families: rsaFam, Hash: crypto.SHA384},
	{Name: PS512, Kind: Signature, Families: rsaFam, Hash: crypto.SHA512},
	{Name: ES256, Kind: Signature, Families: ecFam, Curves: []keys.Curve{keys.P256}, Hash: crypto.SHA256, SignatureBytes: 64},
	{Name: ES384, Kind: Signature, Families: ecFam, Curves: []keys.Curve{keys.P384}, Hash: crypto.SHA384, SignatureBytes: 96},
	{Name: ES512, Kind: Signature, Families: ecFam, Curves: []keys.Curve{keys.P521}, Hash: crypto.SHA512, SignatureBytes: 132},
	{Name: ES256K, Kind: Signature, Families: ecFam, Curves: []keys.Curve{keys.Secp256k1}, Hash: crypto.SHA256, SignatureBytes: 64},
	{Name: EdDSA, Kind: Signature, Families: okpFam, Curves: []keys.Curve{keys.Ed25519, keys.Ed448}},

	{Name: RSA1_5, Kind: KeyManagement, Families: rsaFam},
	{Name: RSAOAEP, Kind: KeyManagement, Families: rsaFam, Hash: crypto.SHA1},
	{Name: RSAOAEP256, Kind: KeyManagement, Families: rsaFam, Hash: crypto.SHA256},
	{Name: RSAOAEP384, Kind: KeyManagement, Families: rsaFam, Hash: crypto.SHA384},
	{Name: RSAOAEP512, Kind: KeyManagement, Families: rsaFam, Hash: crypto.SHA512},
	{Name: A128KW, Kind: KeyManagement, Families: oct, KeyBytes: 16},
	{Name: A192KW, Kind: KeyManagement, Families: oct, KeyBytes: 24},
	{Name: A256KW, Kind: KeyManagement, Families: oct, KeyBytes: 32},
	{Name: A128GCMKW, Kind: KeyManagement, Families: oct, KeyBytes: 16, IVBytes: 12, TagBytes: 16},
	{Name: A192GCMKW, Kind: KeyManagement, Families: oct, KeyBytes: 24, IVBytes: 12, TagBytes: 16},
	{Name: A256GCMKW, Kind: KeyManagement, Families: oct, KeyBytes: 32, IVBytes: 12, TagBytes: 16},
	{Name: Direct, Kind: KeyManagement, Families: oct},
	{Name: ECDHES, Kind: KeyManagement, Families: ecdhes, Curves: agreementCurves},
	{Name: ECDHESA128KW, Kind: KeyManagement, Families: ecdhes, Curves: agreementCurves, KeyBytes: 16},
	{Name: ECDHESA192KW, Kind: KeyManagement, Families: ecdhes, Curves: agreementCurves, KeyBytes: 24},
	{Name: ECDHESA256KW, Kind: KeyManagement, Families: ecdhes, Curves: agreementCurves, KeyBytes: 32},
	{Name: PBES2HS256, Kind: KeyManagement, Families: oct, Hash: crypto.SHA256, KeyBytes: 16},
	{Name: PBES2HS384, Kind: KeyManagement, Families: oct, Hash: crypto.SHA384, KeyBytes: 24},
	{Name: PBES2HS512, Kind: KeyManagement, Families: oct, Hash: crypto.SHA512, KeyBytes: 32},

	{Name: A128CBCHS256, Kind: ContentEncryption, Hash: crypto.SHA256, KeyBytes: 32, IVBytes: 16, TagBytes: 16},
	{Name: A192CBCHS384, Kind: ContentEncryption, Hash: crypto.SHA384, KeyBytes: 48, IVBytes: 16, TagBytes: 24},
	{Name: A256CBCHS512, Kind: ContentEncryption, Hash: crypto.SHA512, KeyBytes: 64, IVBytes: 16, TagBytes: 32},
	{Name: A128GCM, Kind: ContentEncryption, KeyBytes: 16, IVBytes: 12, TagBytes: 16},
	{Name: A192GCM, Kind: ContentEncryption, KeyBytes: 24, IVBytes: 12, TagBytes: 16},
	{Name: A256GCM, Kind: ContentEncryption, KeyBytes: 32, IVBytes: 12, TagBytes: 16},
}

var byName = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(table))
	for _, d := range table {
		m[d.Name] = d
	}
	return m
}()

// IsNone reports whether name is any casing of "none".
func IsNone(name string) bool {
	return strings.EqualFold(name, None)
}

// Lookup returns the descriptor for name. Names are case-sensitive except
// for the none class, where every casing resolves to the none descriptor
// with Name set to the casing given.
func Lookup(name string) (Descriptor, error) {
	if IsNone(name) {
		d := byName[None]
		d.Name = name
		return d, nil
	}
	d, ok := byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return d, nil
}

// LookupKind is Lookup restricted to one kind, so a content encryption
// name in "alg" is rejected the same way as an unknown name.
func LookupKind(name string, kind Kind) (Descriptor, error) {
	d, err := Lookup(name)
	if err != nil {
		return Descriptor{}, err
	}
	if d.Kind != kind {
		return Descriptor{}, fmt.Errorf("%w: %q is not a %s algorithm", ErrUnsupportedAlgorithm, name, kind)
	}
	return d, nil
}

// Names returns the algorithm names of the given kind in table order.
func Names(kind Kind) []string {
	var out []string
	for _, d := range table {
		if d.Kind == kind {
			out = append(out, d.Name)
		}
	}
	return out
}
