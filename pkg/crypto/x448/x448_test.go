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

package x448

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestKeyAgreement(t *testing.T) {
	alice, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	bob, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}

	s1, err := alice.ECDH(bob.PublicKey())
	if err != nil {
		t.Fatalf("ECDH() failed: %v", err)
	}
	s2, err := bob.ECDH(alice.PublicKey())
	if err != nil {
		t.Fatalf("ECDH() failed: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Error("shared secrets differ")
	}
	if len(s1) != Size {
		t.Errorf("shared secret length = %d, want %d", len(s1), Size)
	}
}

func TestRoundTripBytes(t *testing.T) {
	priv, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}

	parsed, err := NewPrivateKey(priv.Bytes())
	if err != nil {
		t.Fatalf("NewPrivateKey() failed: %v", err)
	}
	if !parsed.Equal(priv) {
		t.Error("parsed private key differs")
	}
	if !parsed.PublicKey().Equal(priv.PublicKey()) {
		t.Error("derived public key differs")
	}

	pub, err := NewPublicKey(priv.PublicKey().Bytes())
	if err != nil {
		t.Fatalf("NewPublicKey() failed: %v", err)
	}
	if !pub.Equal(priv.Public()) {
		t.Error("parsed public key differs")
	}
}

func TestInvalidSizes(t *testing.T) {
	if _, err := NewPrivateKey(make([]byte, 32)); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("NewPrivateKey() error = %v, want ErrInvalidKeySize", err)
	}
	if _, err := NewPublicKey(nil); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("NewPublicKey() error = %v, want ErrInvalidKeySize", err)
	}
}

func TestLowOrderPoint(t *testing.T) {
	priv, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	zero, _ := NewPublicKey(make([]byte, Size))
	if _, err := priv.ECDH(zero); !errors.Is(err, ErrLowOrderPoint) {
		t.Errorf("ECDH() error = %v, want ErrLowOrderPoint", err)
	}
}
