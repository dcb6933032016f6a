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

// Package rand is the single source of randomness for key generation,
// content encryption keys, initialization vectors and salts.
//
// Every call draws fresh bytes from the operating system CSPRNG; nothing is
// cached or derived from a counter.
//
// Example:
//
//	iv, err := rand.Bytes(12)
//	key, err := rsa.GenerateKey(rand.Reader, 2048)
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Resolver yields cryptographically secure random bytes.
type Resolver interface {
	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Read implements io.Reader so the resolver can feed key generators.
	Read(p []byte) (n int, err error)
}

// SoftwareResolver draws from crypto/rand.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

// Rand returns n random bytes.
func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("rand: negative length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("rand: %w", err)
	}
	return buf, nil
}

// Read fills p with random bytes.
func (s *SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// Reader is the package-wide resolver, usable wherever an io.Reader
// entropy source is expected.
var Reader Resolver = &SoftwareResolver{}

// Bytes returns n fresh random bytes from Reader.
func Bytes(n int) ([]byte, error) {
	return Reader.Rand(n)
}
