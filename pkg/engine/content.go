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
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	josecipher "github.com/go-jose/go-jose/v4/cipher"

	"github.com/jeremyhahn/go-josekit/pkg/jwa"
)

// contentCipher builds the AEAD of an "enc" algorithm from a CEK of
// desc.KeyBytes bytes.
type contentCipher func(cek []byte) (cipher.AEAD, error)

var contentCiphers = map[string]contentCipher{
	jwa.A128CBCHS256: newCBCHMAC,
	jwa.A192CBCHS384: newCBCHMAC,
	jwa.A256CBCHS512: newCBCHMAC,
	jwa.A128GCM:      newGCM,
	jwa.A192GCM:      newGCM,
	jwa.A256GCM:      newGCM,
}

func newCBCHMAC(cek []byte) (cipher.AEAD, error) {
	return josecipher.NewCBCHMAC(cek, aes.NewCipher)
}

func newGCM(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext under a fresh IV and splits off the tag.
func seal(desc jwa.Descriptor, cek, iv, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	if len(cek) != desc.KeyBytes {
		return nil, nil, fmt.Errorf("%s needs a %d-byte key, got %d", desc.Name, desc.KeyBytes, len(cek))
	}
	aead, err := contentCiphers[desc.Name](cek)
	if err != nil {
		return nil, nil, err
	}
	// CBC-HMAC overhead counts padding as well as the tag.
	if len(iv) != aead.NonceSize() || aead.Overhead() < desc.TagBytes {
		return nil, nil, fmt.Errorf("%s parameter mismatch", desc.Name)
	}
	sealed := aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - desc.TagBytes
	return sealed[:split], sealed[split:], nil
}

// open authenticates and decrypts. Every failure is ErrDecryptionFailed.
func open(desc jwa.Descriptor, cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(cek) != desc.KeyBytes || len(iv) != desc.IVBytes || len(tag) != desc.TagBytes {
		return nil, ErrDecryptionFailed
	}
	aead, err := contentCiphers[desc.Name](cek)
	if err != nil || aead.NonceSize() != len(iv) {
		return nil, ErrDecryptionFailed
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(append(sealed, ciphertext...), tag...)
	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
