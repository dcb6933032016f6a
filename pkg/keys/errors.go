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

package keys

import "errors"

var (
	// ErrPemFormat is returned when PEM text cannot be imported
	ErrPemFormat = errors.New("keys: invalid PEM key")

	// ErrJwkFormat is returned when JWK text cannot be imported
	ErrJwkFormat = errors.New("keys: invalid JWK")

	// ErrUnsupportedKeyFormat is returned when a key has no mapping to the requested format
	ErrUnsupportedKeyFormat = errors.New("keys: unsupported key format")

	// ErrMissingPrivateMaterial is returned when private material is required but absent
	ErrMissingPrivateMaterial = errors.New("keys: missing private key material")

	// ErrUnsupportedParameter is returned for key generation parameters outside the supported set
	ErrUnsupportedParameter = errors.New("keys: unsupported parameter")
)
