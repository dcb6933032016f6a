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
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/ecdh"
	"github.com/jeremyhahn/go-josekit/pkg/crypto/rand"
	"github.com/jeremyhahn/go-josekit/pkg/crypto/wrapping"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

const (
	// DefaultPBES2Count is the PBES2 iteration count used when the header
	// carries no "p2c".
	DefaultPBES2Count = 10000

	// MaxPBES2Count bounds "p2c" on decryption so a hostile token cannot
	// pin the CPU.
	MaxPBES2Count = 1000000
)

// Header members written by key management algorithms.
const (
	headerIV  = "iv"
	headerTag = "tag"
	headerEPK = "epk"
	headerAPU = "apu"
	headerAPV = "apv"
	headerP2S = "p2s"
	headerP2C = "p2c"
	headerZip = "zip"
)

// keyRequest carries one key management operation.
type keyRequest struct {
	alg    jwa.Descriptor
	enc    jwa.Descriptor
	header *jose.Header
	key    *keys.Key
}

// keyManager produces and recovers the content encryption key. wrap may
// add members to the header and returns the header to protect.
type keyManager interface {
	wrap(req keyRequest) (cek, encryptedKey []byte, header *jose.Header, err error)
	unwrap(req keyRequest, encryptedKey []byte) (cek []byte, err error)
}

var keyManagers = map[string]keyManager{
	jwa.RSA1_5:       rsaKeyManager{},
	jwa.RSAOAEP:      rsaKeyManager{},
	jwa.RSAOAEP256:   rsaKeyManager{},
	jwa.RSAOAEP384:   rsaKeyManager{},
	jwa.RSAOAEP512:   rsaKeyManager{},
	jwa.A128KW:       aesKWKeyManager{},
	jwa.A192KW:       aesKWKeyManager{},
	jwa.A256KW:       aesKWKeyManager{},
	jwa.A128GCMKW:    aesGCMKeyManager{},
	jwa.A192GCMKW:    aesGCMKeyManager{},
	jwa.A256GCMKW:    aesGCMKeyManager{},
	jwa.Direct:       directKeyManager{},
	jwa.ECDHES:       ecdhKeyManager{direct: true},
	jwa.ECDHESA128KW: ecdhKeyManager{},
	jwa.ECDHESA192KW: ecdhKeyManager{},
	jwa.ECDHESA256KW: ecdhKeyManager{},
	jwa.PBES2HS256:   pbes2KeyManager{},
	jwa.PBES2HS384:   pbes2KeyManager{},
	jwa.PBES2HS512:   pbes2KeyManager{},
}

// checkSecretSize applies to algorithms whose descriptor fixes the
// symmetric key size.
func checkSecretSize(desc jwa.Descriptor, key *keys.Key) error {
	if desc.KeyBytes != 0 && len(key.Secret()) != desc.KeyBytes {
		return fmt.Errorf("%w: %s needs a %d-bit key, got %d bits", ErrKeyMismatch, desc.Name, 8*desc.KeyBytes, key.Bits())
	}
	return nil
}

func newCEK(enc jwa.Descriptor) ([]byte, error) {
	return rand.Bytes(enc.KeyBytes)
}

type rsaKeyManager struct{}

func (rsaKeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	pub, ok := req.key.PublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, nil, nil, ErrKeyMismatch
	}
	cek, err := newCEK(req.enc)
	if err != nil {
		return nil, nil, nil, err
	}
	var ek []byte
	if req.alg.Name == jwa.RSA1_5 {
		ek, err = wrapping.WrapRSA1_5(cek, pub)
	} else {
		ek, err = wrapping.WrapRSAOAEP(cek, pub, req.alg.Hash)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return cek, ek, req.header, nil
}

func (rsaKeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	priv, ok := req.key.PrivateKey().(*rsa.PrivateKey)
	if !ok {
		return nil, ErrKeyMismatch
	}
	if req.alg.Name == jwa.RSA1_5 {
		return wrapping.UnwrapRSA1_5(encryptedKey, priv, req.enc.KeyBytes)
	}
	return wrapping.UnwrapRSAOAEP(encryptedKey, priv, req.alg.Hash)
}

type aesKWKeyManager struct{}

func (aesKWKeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	if err := checkSecretSize(req.alg, req.key); err != nil {
		return nil, nil, nil, err
	}
	cek, err := newCEK(req.enc)
	if err != nil {
		return nil, nil, nil, err
	}
	ek, err := wrapping.WrapAESKW(cek, req.key.Secret())
	if err != nil {
		return nil, nil, nil, err
	}
	return cek, ek, req.header, nil
}

func (aesKWKeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	if err := checkSecretSize(req.alg, req.key); err != nil {
		return nil, err
	}
	return wrapping.UnwrapAESKW(encryptedKey, req.key.Secret())
}

type aesGCMKeyManager struct{}

func (aesGCMKeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	if err := checkSecretSize(req.alg, req.key); err != nil {
		return nil, nil, nil, err
	}
	cek, err := newCEK(req.enc)
	if err != nil {
		return nil, nil, nil, err
	}
	ek, iv, tag, err := wrapping.WrapAESGCM(cek, req.key.Secret())
	if err != nil {
		return nil, nil, nil, err
	}
	header := req.header.
		MustSet(headerIV, jose.EncodeSegment(iv)).
		MustSet(headerTag, jose.EncodeSegment(tag))
	return cek, ek, header, nil
}

func (aesGCMKeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	if err := checkSecretSize(req.alg, req.key); err != nil {
		return nil, err
	}
	iv, err := headerSegment(req.header, headerIV, true)
	if err != nil {
		return nil, err
	}
	tag, err := headerSegment(req.header, headerTag, true)
	if err != nil {
		return nil, err
	}
	return wrapping.UnwrapAESGCM(encryptedKey, req.key.Secret(), iv, tag)
}

type directKeyManager struct{}

func (directKeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	cek := req.key.Secret()
	if len(cek) != req.enc.KeyBytes {
		return nil, nil, nil, fmt.Errorf("%w: %s needs a %d-bit key, got %d bits", ErrKeyMismatch, req.enc.Name, 8*req.enc.KeyBytes, req.key.Bits())
	}
	return cek, nil, req.header, nil
}

func (directKeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	if len(encryptedKey) != 0 {
		return nil, ErrDecryptionFailed
	}
	return req.key.Secret(), nil
}

type ecdhKeyManager struct {
	direct bool
}

// derive runs the Concat KDF for the direct or key-wrapping variant.
func (m ecdhKeyManager) derive(req keyRequest, z []byte) ([]byte, error) {
	apu, err := headerSegment(req.header, headerAPU, false)
	if err != nil {
		return nil, err
	}
	apv, err := headerSegment(req.header, headerAPV, false)
	if err != nil {
		return nil, err
	}
	if m.direct {
		return ecdh.DeriveKey(z, req.enc.Name, apu, apv, req.enc.KeyBytes)
	}
	return ecdh.DeriveKey(z, req.alg.Name, apu, apv, req.alg.KeyBytes)
}

func (m ecdhKeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	ephemeral, err := ecdh.GenerateEphemeral(req.key.PublicKey())
	if err != nil {
		return nil, nil, nil, err
	}
	z, err := ecdh.DeriveSharedSecret(ephemeral, req.key.PublicKey())
	if err != nil {
		return nil, nil, nil, err
	}
	epk, err := keys.FromPrivateKey(ephemeral, "")
	if err != nil {
		return nil, nil, nil, err
	}
	epkJWK, err := epk.JWK(false)
	if err != nil {
		return nil, nil, nil, err
	}
	header, err := req.header.Set(headerEPK, epkJWK)
	if err != nil {
		return nil, nil, nil, err
	}

	derived, err := m.derive(req, z)
	if err != nil {
		return nil, nil, nil, err
	}
	if m.direct {
		return derived, nil, header, nil
	}
	cek, err := newCEK(req.enc)
	if err != nil {
		return nil, nil, nil, err
	}
	ek, err := wrapping.WrapAESKW(cek, derived)
	if err != nil {
		return nil, nil, nil, err
	}
	return cek, ek, header, nil
}

func (m ecdhKeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	raw, ok := req.header.Get(headerEPK)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	epk, err := keys.FromJWK(raw)
	if err != nil || epk.Curve() != req.key.Curve() {
		return nil, ErrDecryptionFailed
	}
	z, err := ecdh.DeriveSharedSecret(req.key.PrivateKey(), epk.PublicKey())
	if err != nil {
		return nil, err
	}
	derived, err := m.derive(req, z)
	if err != nil {
		return nil, err
	}
	if m.direct {
		if len(encryptedKey) != 0 {
			return nil, ErrDecryptionFailed
		}
		return derived, nil
	}
	return wrapping.UnwrapAESKW(encryptedKey, derived)
}

type pbes2KeyManager struct{}

func (pbes2KeyManager) wrap(req keyRequest) ([]byte, []byte, *jose.Header, error) {
	count := DefaultPBES2Count
	if req.header.Has(headerP2C) {
		c, err := headerCount(req.header)
		if err != nil {
			return nil, nil, nil, err
		}
		count = c
	}
	salt, err := rand.Bytes(wrapping.PBES2SaltSize)
	if err != nil {
		return nil, nil, nil, err
	}
	kek, err := wrapping.DerivePBES2(req.key.Secret(), req.alg.Name, salt, count, req.alg.Hash, req.alg.KeyBytes)
	if err != nil {
		return nil, nil, nil, err
	}
	cek, err := newCEK(req.enc)
	if err != nil {
		return nil, nil, nil, err
	}
	ek, err := wrapping.WrapAESKW(cek, kek)
	if err != nil {
		return nil, nil, nil, err
	}
	header := req.header.
		MustSet(headerP2S, jose.EncodeSegment(salt)).
		MustSet(headerP2C, count)
	return cek, ek, header, nil
}

func (pbes2KeyManager) unwrap(req keyRequest, encryptedKey []byte) ([]byte, error) {
	salt, err := headerSegment(req.header, headerP2S, true)
	if err != nil {
		return nil, err
	}
	count, err := headerCount(req.header)
	if err != nil {
		return nil, err
	}
	kek, err := wrapping.DerivePBES2(req.key.Secret(), req.alg.Name, salt, count, req.alg.Hash, req.alg.KeyBytes)
	if err != nil {
		return nil, err
	}
	return wrapping.UnwrapAESKW(encryptedKey, kek)
}

// headerSegment decodes a base64url string member.
func headerSegment(header *jose.Header, name string, required bool) ([]byte, error) {
	if !header.Has(name) {
		if required {
			return nil, fmt.Errorf("missing %q", name)
		}
		return nil, nil
	}
	s, ok := header.GetString(name)
	if !ok {
		return nil, fmt.Errorf("%q is not a string", name)
	}
	return jose.DecodeSegment(s)
}

// headerCount reads "p2c" as an integer in [1, MaxPBES2Count].
func headerCount(header *jose.Header) (int, error) {
	raw, ok := header.Get(headerP2C)
	if !ok {
		return 0, fmt.Errorf("missing %q", headerP2C)
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("%q: %w", headerP2C, err)
	}
	if count < 1 || count > MaxPBES2Count {
		return 0, fmt.Errorf("%q out of range: %d", headerP2C, count)
	}
	return count, nil
}
