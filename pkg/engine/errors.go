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
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-josekit/pkg/jwa"
)

var (
	// ErrUnsupportedAlgorithm is jwa.ErrUnsupportedAlgorithm.
	ErrUnsupportedAlgorithm = jwa.ErrUnsupportedAlgorithm

	// ErrKeyMismatch is returned when the key family, curve or size does not
	// fit the algorithm, or when private material is required but absent.
	ErrKeyMismatch = errors.New("engine: key does not match algorithm")

	ErrSigningError    = errors.New("engine: signing failed")
	ErrEncryptionError = errors.New("engine: encryption failed")

	// ErrDecryptionFailed covers every failure after the algorithm and key
	// were accepted. The cause is never attached.
	ErrDecryptionFailed = errors.New("engine: decryption failed")
)

// recoverAs converts a panic from a primitive into a typed failure.
func recoverAs(err *error, sentinel error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", sentinel, r)
	}
}
