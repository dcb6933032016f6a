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

package jose

import (
	"bytes"
	"fmt"
)

// JWE is a compact JSON Web Encryption object. The encrypted key, IV and
// tag may be empty.
type JWE struct {
	header       *Header
	encryptedKey []byte
	iv           []byte
	ciphertext   []byte
	tag          []byte
}

// NewJWE assembles a JWE from its parts.
func NewJWE(header *Header, encryptedKey, iv, ciphertext, tag []byte) *JWE {
	if header == nil {
		header = NewHeader()
	}
	return &JWE{
		header:       header,
		encryptedKey: bytes.Clone(encryptedKey),
		iv:           bytes.Clone(iv),
		ciphertext:   bytes.Clone(ciphertext),
		tag:          bytes.Clone(tag),
	}
}

// ParseJWE parses a five-segment compact JWE.
func ParseJWE(token string) (*JWE, error) {
	parts, header, err := parseSegments(token, 5)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{HeaderAlgorithm, HeaderEncryption} {
		if !header.Has(name) {
			return nil, fmt.Errorf("%w: JWE header has no %q", ErrMalformedToken, name)
		}
	}
	return &JWE{
		header:       header,
		encryptedKey: parts[1],
		iv:           parts[2],
		ciphertext:   parts[3],
		tag:          parts[4],
	}, nil
}

// Kind returns KindJWE.
func (j *JWE) Kind() Kind { return KindJWE }

// Header returns the protected header.
func (j *JWE) Header() *Header { return j.header }

// Algorithm returns the "alg" header member.
func (j *JWE) Algorithm() string {
	alg, _ := j.header.GetString(HeaderAlgorithm)
	return alg
}

// Encryption returns the "enc" header member.
func (j *JWE) Encryption() string {
	enc, _ := j.header.GetString(HeaderEncryption)
	return enc
}

func (j *JWE) EncryptedKey() []byte { return bytes.Clone(j.encryptedKey) }
func (j *JWE) IV() []byte           { return bytes.Clone(j.iv) }
func (j *JWE) Ciphertext() []byte   { return bytes.Clone(j.ciphertext) }
func (j *JWE) Tag() []byte          { return bytes.Clone(j.tag) }

// AAD returns the additional authenticated data, ASCII(BASE64URL(header)).
func (j *JWE) AAD() []byte {
	return []byte(EncodeSegment(j.header.Bytes()))
}

// Serialize returns the compact serialization.
func (j *JWE) Serialize() string {
	return join(j.header.Bytes(), j.encryptedKey, j.iv, j.ciphertext, j.tag)
}

// WithHeader returns a copy carrying header.
func (j *JWE) WithHeader(header *Header) *JWE {
	dup := *j
	dup.header = header
	return &dup
}

// WithEncryptedKey returns a copy carrying encryptedKey.
func (j *JWE) WithEncryptedKey(encryptedKey []byte) *JWE {
	dup := *j
	dup.encryptedKey = bytes.Clone(encryptedKey)
	return &dup
}

// WithIV returns a copy carrying iv.
func (j *JWE) WithIV(iv []byte) *JWE {
	dup := *j
	dup.iv = bytes.Clone(iv)
	return &dup
}

// WithCiphertext returns a copy carrying ciphertext.
func (j *JWE) WithCiphertext(ciphertext []byte) *JWE {
	dup := *j
	dup.ciphertext = bytes.Clone(ciphertext)
	return &dup
}

// WithTag returns a copy carrying tag.
func (j *JWE) WithTag(tag []byte) *JWE {
	dup := *j
	dup.tag = bytes.Clone(tag)
	return &dup
}
