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

package jwk

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-josekit/pkg/crypto/x448"
)

func generateKeys(t *testing.T) map[string]crypto.PrivateKey {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p256, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	p521, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)
	k1, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	_, ed, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, ed4, err := ed448.GenerateKey(rand.Reader)
	require.NoError(t, err)
	x25519, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)
	x4, err := x448.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return map[string]crypto.PrivateKey{
		"RSA": rsaKey, "P-256": p256, "P-384": p384, "P-521": p521,
		"secp256k1": k1, "Ed25519": ed, "Ed448": ed4, "X25519": x25519, "X448": x4,
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	for name, key := range generateKeys(t) {
		t.Run(name, func(t *testing.T) {
			jwk, err := FromPrivateKey(key)
			require.NoError(t, err)
			assert.True(t, jwk.IsPrivate())

			data, err := jwk.Marshal()
			require.NoError(t, err)
			parsed, err := Unmarshal(data)
			require.NoError(t, err)

			priv, err := parsed.ToPrivateKey()
			require.NoError(t, err)

			again, err := FromPrivateKey(priv)
			require.NoError(t, err)
			assert.Equal(t, jwk, again)
		})
	}
}

func TestPublicProjection(t *testing.T) {
	for name, key := range generateKeys(t) {
		t.Run(name, func(t *testing.T) {
			priv, err := FromPrivateKey(key)
			require.NoError(t, err)

			pub := priv.Public()
			assert.False(t, pub.IsPrivate())
			assert.Empty(t, pub.D)
			assert.Empty(t, pub.P)
			assert.NotEmpty(t, priv.D, "Public must not modify the receiver")

			_, err = pub.ToPrivateKey()
			assert.ErrorIs(t, err, ErrMissingPrivateKey)

			pk, err := pub.ToPublicKey()
			require.NoError(t, err)
			fromPub, err := FromPublicKey(pk)
			require.NoError(t, err)
			assert.Equal(t, pub, fromPub)

			tpPriv, err := priv.ThumbprintSHA256()
			require.NoError(t, err)
			tpPub, err := pub.ThumbprintSHA256()
			require.NoError(t, err)
			assert.Equal(t, tpPriv, tpPub)
		})
	}
}

func TestCoordinatesArePadded(t *testing.T) {
	for i := 0; i < 16; i++ {
		key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
		require.NoError(t, err)
		jwk, err := FromPrivateKey(key)
		require.NoError(t, err)

		for field, value := range map[string]string{"x": jwk.X, "y": jwk.Y, "d": jwk.D} {
			raw, err := base64.RawURLEncoding.DecodeString(value)
			require.NoError(t, err)
			assert.Len(t, raw, 66, "%s must be padded to the field size", field)
		}
	}
}

func TestSecp256k1Names(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	jwk, err := FromPublicKey(key.PubKey())
	require.NoError(t, err)
	assert.Equal(t, string(CurveSecp256k1), jwk.Crv)

	jwk.Crv = string(CurveP256K)
	pub, err := jwk.ToPublicKey()
	require.NoError(t, err)
	assert.True(t, key.PubKey().IsEqual(pub.(*secp256k1.PublicKey)))
}

func TestSymmetricKey(t *testing.T) {
	jwk := FromSymmetricKey([]byte("secret"), "HS256")
	data, err := jwk.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kty":"oct","alg":"HS256","k":"c2VjcmV0"}`, string(data))

	k, err := jwk.ToSymmetricKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), k)

	empty := FromSymmetricKey(nil, "")
	k, err = empty.ToSymmetricKey()
	require.NoError(t, err)
	assert.Empty(t, k)

	_, err = empty.ToPublicKey()
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}

func TestMismatchedPrivateMaterial(t *testing.T) {
	a, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	b, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ja, err := FromPrivateKey(a)
	require.NoError(t, err)
	jb, err := FromPrivateKey(b)
	require.NoError(t, err)

	ja.D = jb.D
	_, err = ja.ToPrivateKey()
	assert.ErrorIs(t, err, ErrInvalidJWK)
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"not json", `{`, ErrInvalidJWK},
		{"no kty", `{"n":"AQAB"}`, ErrInvalidJWK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.json))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	conversions := []struct {
		name string
		json string
		want error
	}{
		{"unknown kty", `{"kty":"XYZ"}`, ErrUnsupportedKeyType},
		{"unknown curve", `{"kty":"EC","crv":"P-192","x":"AA","y":"AA"}`, ErrUnsupportedCurve},
		{"short coordinate", `{"kty":"EC","crv":"P-256","x":"AA","y":"AA"}`, ErrInvalidJWK},
		{"missing n", `{"kty":"RSA","e":"AQAB"}`, ErrInvalidJWK},
		{"bad okp size", `{"kty":"OKP","crv":"Ed25519","x":"AAAA"}`, ErrInvalidJWK},
	}
	for _, tt := range conversions {
		t.Run(tt.name, func(t *testing.T) {
			jwk, err := Unmarshal([]byte(tt.json))
			require.NoError(t, err)
			_, err = jwk.ToPublicKey()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestThumbprintRFC7638(t *testing.T) {
	jwk := &JWK{
		Kty: "RSA",
		E:   "AQAB",
		N: "0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAtVT86zwu1RK7aPFFxuhDR1L6tSoc_BJECP" +
			"ebWKRXjBZCiFV4n3oknjhMstn64tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FDW2QvzqY" +
			"368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n91CbOpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0f" +
			"M4lFd2NcRwr3XPksINHaQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw",
		Alg: "RS256",
		Kid: "2011-04-29",
	}

	tp, err := jwk.ThumbprintSHA256()
	require.NoError(t, err)
	assert.Equal(t, "NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs", tp)
}

func TestThumbprintMatchesGoJose(t *testing.T) {
	keys := generateKeys(t)
	for _, name := range []string{"RSA", "P-256", "P-384", "Ed25519"} {
		t.Run(name, func(t *testing.T) {
			pub, err := FromPrivateKey(keys[name])
			require.NoError(t, err)
			data, err := pub.Public().Marshal()
			require.NoError(t, err)

			var other jose.JSONWebKey
			require.NoError(t, json.Unmarshal(data, &other))
			want, err := other.Thumbprint(crypto.SHA256)
			require.NoError(t, err)

			got, err := pub.ThumbprintSHA256()
			require.NoError(t, err)
			assert.Equal(t, base64.RawURLEncoding.EncodeToString(want), got)
		})
	}
}
