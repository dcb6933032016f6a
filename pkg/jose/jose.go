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

// Package jose is the structural model of compact-serialized JOSE objects:
// JSON Web Signatures (RFC 7515) and JSON Web Encryption objects (RFC 7516).
//
// The package performs no cryptography. Parse splits a token into its parts,
// Serialize joins them again, and every value is immutable: With* methods
// return modified copies. Parsing followed by Serialize reproduces the input
// byte for byte.
//
//	obj, err := jose.Parse(token)
//	if jws, ok := obj.(*jose.JWS); ok {
//		alg, _ := jws.Header().GetString("alg")
//	}
package jose

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedToken is returned for structurally invalid compact tokens.
var ErrMalformedToken = errors.New("jose: malformed token")

// Header member names interpreted by the toolkit.
const (
	HeaderAlgorithm  = "alg"
	HeaderEncryption = "enc"
	HeaderKeyID      = "kid"
	HeaderType       = "typ"
	HeaderJWK        = "jwk"
)

// Kind distinguishes the two compact serializations.
type Kind string

const (
	KindJWS Kind = "JWS"
	KindJWE Kind = "JWE"
)

// Object is a parsed JOSE object, either *JWS or *JWE.
type Object interface {
	Kind() Kind
	Header() *Header
	Serialize() string
}

var b64 = base64.RawURLEncoding.Strict()

// EncodeSegment base64url-encodes a token segment without padding.
func EncodeSegment(data []byte) string {
	return b64.EncodeToString(data)
}

// DecodeSegment decodes a base64url segment. Padding, line breaks and
// non-zero trailing bits are rejected so that a decoded segment always
// re-encodes to the same text.
func DecodeSegment(segment string) ([]byte, error) {
	if strings.ContainsAny(segment, "\r\n=") {
		return nil, fmt.Errorf("%w: non-canonical base64url", ErrMalformedToken)
	}
	data, err := b64.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return data, nil
}

// Parse parses a compact JWS (three segments) or JWE (five segments).
func Parse(token string) (Object, error) {
	switch strings.Count(token, ".") {
	case 2:
		return ParseJWS(token)
	case 4:
		return ParseJWE(token)
	}
	return nil, fmt.Errorf("%w: expected 3 or 5 segments, got %d", ErrMalformedToken, strings.Count(token, ".")+1)
}

func parseSegments(token string, n int) ([][]byte, *Header, error) {
	segments := strings.Split(token, ".")
	if len(segments) != n {
		return nil, nil, fmt.Errorf("%w: expected %d segments, got %d", ErrMalformedToken, n, len(segments))
	}
	parts := make([][]byte, n)
	for i, s := range segments {
		data, err := DecodeSegment(s)
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		parts[i] = data
	}
	header, err := ParseHeader(parts[0])
	if err != nil {
		return nil, nil, err
	}
	return parts, header, nil
}

func join(parts ...[]byte) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(EncodeSegment(p))
	}
	return b.String()
}

// Serialize returns the compact serialization of obj.
func Serialize(obj Object) string {
	return obj.Serialize()
}

// FormatJSON renders JSON text either compact or indented by four spaces.
// Member order is preserved. Input that is not JSON is rejected.
func FormatJSON(data []byte, compact bool) ([]byte, error) {
	var b bytes.Buffer
	var err error
	if compact {
		err = json.Compact(&b, data)
	} else {
		err = json.Indent(&b, data, "", "    ")
	}
	if err != nil {
		return nil, fmt.Errorf("jose: not JSON: %w", err)
	}
	return b.Bytes(), nil
}
