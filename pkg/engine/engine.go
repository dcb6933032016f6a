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

// Package engine signs, verifies, encrypts and decrypts JOSE objects.
//
// Every operation is a pure function of its arguments. The algorithm is
// read from the object's header, resolved through the jwa descriptor table
// and dispatched to one primitive per algorithm; the key is checked against
// the descriptor before any cryptography runs. Inputs are never modified.
//
// Sign and verify:
//
//	key, _ := keys.Generate(keys.EC, "P-256", "k1")
//	jws := jose.NewJWS(jose.NewHeader().MustSet("alg", "ES256"), []byte(`{"sub":"alice"}`))
//	signed, err := engine.Sign(jws, key)
//	ok, err := engine.Verify(signed, key.Public())
//
// Encrypt and decrypt:
//
//	header := jose.NewHeader().MustSet("alg", "RSA-OAEP-256").MustSet("enc", "A256GCM")
//	jwe, err := engine.Encrypt(header, plaintext, rsaKey.Public())
//	plaintext, err = engine.Decrypt(jwe, rsaKey)
package engine

import (
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/rand"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

// checkKey validates key against the algorithm descriptor. needPrivate is
// set for signing and decryption.
func checkKey(desc jwa.Descriptor, key *keys.Key, needPrivate bool) error {
	if key == nil {
		return fmt.Errorf("%w: no key", ErrKeyMismatch)
	}
	if !desc.AcceptsFamily(key.Family()) {
		return fmt.Errorf("%w: %s cannot use a %s key", ErrKeyMismatch, desc.Name, key.Family())
	}
	if !desc.AcceptsCurve(key.Curve()) {
		return fmt.Errorf("%w: %s cannot use curve %s", ErrKeyMismatch, desc.Name, key.Curve())
	}
	if needPrivate && !key.HasPrivate() {
		return fmt.Errorf("%w: %w", ErrKeyMismatch, keys.ErrMissingPrivateMaterial)
	}
	return nil
}

// signingKey returns the Go value a signing method expects.
func signingKey(key *keys.Key) interface{} {
	if key.Family() == keys.Symmetric {
		return key.Secret()
	}
	return key.PrivateKey()
}

func verificationKey(key *keys.Key) interface{} {
	if key.Family() == keys.Symmetric {
		return key.Secret()
	}
	return key.PublicKey()
}

// Sign signs jws with the algorithm named by its "alg" header and returns a
// copy carrying the signature. The key may be nil for none-class algorithms,
// which produce an empty signature.
func Sign(jws *jose.JWS, key *keys.Key) (signed *jose.JWS, err error) {
	defer recoverAs(&err, ErrSigningError)

	desc, err := jwa.LookupKind(jws.Algorithm(), jwa.Signature)
	if err != nil {
		return nil, err
	}
	if desc.NoneClass {
		return jws.WithSignature(nil), nil
	}
	if err := checkKey(desc, key, true); err != nil {
		return nil, err
	}

	method := signingMethods[desc.Name]
	sig, err := method.Sign(string(jws.SigningInput()), signingKey(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSigningError, desc.Name, err)
	}
	return jws.WithSignature(sig), nil
}

// Verify reports whether the signature of jws is valid under key. A wrong
// signature, a key that does not fit the algorithm and the none algorithm
// all yield false; only an unsupported algorithm is an error.
func Verify(jws *jose.JWS, key *keys.Key) (valid bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			valid, err = false, nil
		}
	}()

	desc, err := jwa.LookupKind(jws.Algorithm(), jwa.Signature)
	if err != nil {
		return false, err
	}
	if desc.NoneClass {
		return false, nil
	}
	if checkKey(desc, key, false) != nil {
		return false, nil
	}

	sig := jws.Signature()
	if desc.SignatureBytes != 0 && len(sig) != desc.SignatureBytes {
		return false, nil
	}
	method := signingMethods[desc.Name]
	return method.Verify(string(jws.SigningInput()), sig, verificationKey(key)) == nil, nil
}

// Encrypt encrypts payload for key under the "alg" and "enc" members of
// header. Members required by the key management algorithm ("epk", "iv",
// "tag", "p2s", "p2c") are added to the returned object's header; other
// members, including "apu", "apv" and a caller-chosen "p2c", are kept.
func Encrypt(header *jose.Header, payload []byte, key *keys.Key) (jwe *jose.JWE, err error) {
	defer recoverAs(&err, ErrEncryptionError)

	req, err := newKeyRequest(header, key, false)
	if err != nil {
		return nil, err
	}

	cek, encryptedKey, protected, err := keyManagers[req.alg.Name].wrap(req)
	if err != nil {
		if isKeyMismatch(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrEncryptionError, req.alg.Name, err)
	}

	iv, err := rand.Bytes(req.enc.IVBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionError, err)
	}
	shell := jose.NewJWE(protected, nil, nil, nil, nil)
	ciphertext, tag, err := seal(req.enc, cek, iv, payload, shell.AAD())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncryptionError, req.enc.Name, err)
	}
	return jose.NewJWE(protected, encryptedKey, iv, ciphertext, tag), nil
}

// Decrypt recovers the plaintext of jwe. Once the algorithms and the key
// have been accepted every failure, whether in key unwrapping or in tag
// verification, is ErrDecryptionFailed.
func Decrypt(jwe *jose.JWE, key *keys.Key) (plaintext []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			plaintext, err = nil, ErrDecryptionFailed
		}
	}()

	req, err := newKeyRequest(jwe.Header(), key, true)
	if err != nil {
		return nil, err
	}

	cek, err := keyManagers[req.alg.Name].unwrap(req, jwe.EncryptedKey())
	if err != nil {
		if isKeyMismatch(err) {
			return nil, err
		}
		return nil, ErrDecryptionFailed
	}
	return open(req.enc, cek, jwe.IV(), jwe.Ciphertext(), jwe.Tag(), jwe.AAD())
}

func newKeyRequest(header *jose.Header, key *keys.Key, decrypt bool) (keyRequest, error) {
	alg, _ := header.GetString(jose.HeaderAlgorithm)
	enc, _ := header.GetString(jose.HeaderEncryption)

	algDesc, err := jwa.LookupKind(alg, jwa.KeyManagement)
	if err != nil {
		return keyRequest{}, err
	}
	encDesc, err := jwa.LookupKind(enc, jwa.ContentEncryption)
	if err != nil {
		return keyRequest{}, err
	}
	if header.Has(headerZip) {
		return keyRequest{}, fmt.Errorf("%w: compression (%q) is not supported", ErrUnsupportedAlgorithm, headerZip)
	}

	if err := checkKey(algDesc, key, decrypt); err != nil {
		return keyRequest{}, err
	}
	return keyRequest{alg: algDesc, enc: encDesc, header: header, key: key}, nil
}

func isKeyMismatch(err error) bool {
	return errors.Is(err, ErrKeyMismatch)
}
