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

// JWS is a compact JSON Web Signature.
type JWS struct {
	header    *Header
	payload   []byte
	signature []byte
}

// NewJWS builds an unsigned JWS. A nil header is treated as empty.
func NewJWS(header *Header, payload []byte) *JWS {
	if header == nil {
		header = NewHeader()
	}
	return &JWS{header: header, payload: bytes.Clone(payload)}
}

// ParseJWS parses a three-segment compact JWS.
func ParseJWS(token string) (*JWS, error) {
	parts, header, err := parseSegments(token, 3)
	if err != nil {
		return nil, err
	}
	if !header.Has(HeaderAlgorithm) {
		return nil, fmt.Errorf("%w: JWS header has no %q", ErrMalformedToken, HeaderAlgorithm)
	}
	return &JWS{header: header, payload: parts[1], signature: parts[2]}, nil
}

// Kind returns KindJWS.
func (j *JWS) Kind() Kind { return KindJWS }

// Header returns the protected header.
func (j *JWS) Header() *Header { return j.header }

// Algorithm returns the "alg" header member.
func (j *JWS) Algorithm() string {
	alg, _ := j.header.GetString(HeaderAlgorithm)
	return alg
}

// Payload returns a copy of the payload.
func (j *JWS) Payload() []byte { return bytes.Clone(j.payload) }

// Signature returns a copy of the signature, empty for unsigned tokens.
func (j *JWS) Signature() []byte { return bytes.Clone(j.signature) }

// SigningInput returns ASCII(BASE64URL(header) || '.' || BASE64URL(payload)).
func (j *JWS) SigningInput() []byte {
	return []byte(join(j.header.Bytes(), j.payload))
}

// Serialize returns the compact serialization.
func (j *JWS) Serialize() string {
	return join(j.header.Bytes(), j.payload, j.signature)
}

// WithHeader returns a copy carrying header. The signature is kept.
func (j *JWS) WithHeader(header *Header) *JWS {
	dup := *j
	dup.header = header
	return &dup
}

// WithPayload returns a copy carrying payload. The signature is kept.
func (j *JWS) WithPayload(payload []byte) *JWS {
	dup := *j
	dup.payload = bytes.Clone(payload)
	return &dup
}

// WithSignature returns a copy carrying signature.
func (j *JWS) WithSignature(signature []byte) *JWS {
	dup := *j
	dup.signature = bytes.Clone(signature)
	return &dup
}

// WithAlgorithm returns a copy whose "alg" is set to alg.
func (j *JWS) WithAlgorithm(alg string) *JWS {
	return j.WithHeader(j.header.MustSet(HeaderAlgorithm, alg))
}
