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

// Package validation flags weak keys and sanitizes token-derived values
// before they reach the logs. Nothing here rejects input: a testing tool
// has to be able to sign with weak keys and odd header values.
package validation

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

const (
	// MinRSABits is the smallest modulus RFC 7518 permits for RS*, PS* and RSA key management.
	MinRSABits = 2048

	// MaxLogLength bounds a sanitized value
	MaxLogLength = 1000
)

// WeakKey reports why key is too weak for alg under RFC 7518, or false when
// it is not. Unknown algorithms are never reported.
func WeakKey(key *keys.Key, alg string) (string, bool) {
	desc, err := jwa.Lookup(alg)
	if err != nil || key == nil {
		return "", false
	}

	switch key.Family() {
	case keys.RSA:
		if desc.AcceptsFamily(keys.RSA) && key.Bits() < MinRSABits {
			return fmt.Sprintf("%d-bit RSA key is below the %d-bit minimum", key.Bits(), MinRSABits), true
		}
	case keys.Symmetric:
		// HMAC keys must be at least as long as the hash output
		if desc.Kind == jwa.Signature && desc.Hash.Available() {
			if minBits := desc.Hash.Size() * 8; key.Bits() < minBits {
				return fmt.Sprintf("%d-bit secret is shorter than the %d-bit %s hash", key.Bits(), minBits, alg), true
			}
		}
	}
	return "", false
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	// Remove control characters and null bytes
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > MaxLogLength {
		s = s[:MaxLogLength] + "...[truncated]"
	}

	return s
}
