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
	"crypto/ecdsa"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"

	gojose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
)

var (
	rsaKey      = sync.OnceValues(func() (*keys.Key, error) { return keys.GenerateRSA(2048, "rsa-1") })
	otherRSAKey = sync.OnceValues(func() (*keys.Key, error) { return keys.GenerateRSA(2048, "rsa-2") })
)

const claims = `{"sub":"alice"}`

func mustRSA(t *testing.T, other bool) *keys.Key {
	t.Helper()
	gen := rsaKey
	if other {
		gen = otherRSAKey
	}
	key, err := gen()
	require.NoError(t, err)
	return key
}

// signingKeyFor returns a fresh key suitable for alg.
func signingKeyFor(t *testing.T, alg string) *keys.Key {
	t.Helper()
	var (
		key *keys.Key
		err error
	)
	switch alg {
	case jwa.HS256:
		key, err = keys.GenerateSymmetric(256, "")
	case jwa.HS384:
		key, err = keys.GenerateSymmetric(384, "")
	case jwa.HS512:
		key, err = keys.GenerateSymmetric(512, "")
	case jwa.ES256:
		key, err = keys.GenerateCurve(keys.P256, "")
	case jwa.ES384:
		key, err = keys.GenerateCurve(keys.P384, "")
	case jwa.ES512:
		key, err = keys.GenerateCurve(keys.P521, "")
	case jwa.ES256K:
		key, err = keys.GenerateCurve(keys.Secp256k1, "")
	case jwa.EdDSA:
		key, err = keys.GenerateCurve(keys.Ed25519, "")
	default:
		// RS* and PS*; SHA-512 PSS needs more than a 1024-bit modulus.
		key, err = keys.GenerateRSA(2048, "")
	}
	require.NoError(t, err)
	return key
}

func newJWS(alg string) *jose.JWS {
	return jose.NewJWS(jose.NewHeader().MustSet(jose.HeaderAlgorithm, alg), []byte(claims))
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, alg := range jwa.Names(jwa.Signature) {
		if jwa.IsNone(alg) {
			continue
		}
		t.Run(alg, func(t *testing.T) {
			key := signingKeyFor(t, alg)
			signed, err := Sign(newJWS(alg), key)
			require.NoError(t, err)
			assert.NotEmpty(t, signed.Signature())

			desc, err := jwa.Lookup(alg)
			require.NoError(t, err)
			if desc.SignatureBytes != 0 {
				assert.Len(t, signed.Signature(), desc.SignatureBytes)
			}

			ok, err := Verify(signed, key.Public())
			require.NoError(t, err)
			assert.True(t, ok)

			// A serialized and reparsed token verifies the same way.
			parsed, err := jose.ParseJWS(signed.Serialize())
			require.NoError(t, err)
			ok, err = Verify(parsed, key.Public())
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = Verify(signed.WithPayload([]byte(`{"sub":"mallory"}`)), key.Public())
			require.NoError(t, err)
			assert.False(t, ok)

			sig := signed.Signature()
			sig[len(sig)-1] ^= 0x01
			ok, err = Verify(signed.WithSignature(sig), key.Public())
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = Verify(signed, signingKeyFor(t, alg))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignEd448(t *testing.T) {
	key, err := keys.GenerateCurve(keys.Ed448, "ed448")
	require.NoError(t, err)

	signed, err := Sign(newJWS(jwa.EdDSA), key)
	require.NoError(t, err)
	assert.Len(t, signed.Signature(), 114)

	ok, err := Verify(signed, key.Public())
	require.NoError(t, err)
	assert.True(t, ok)

	ed25519Key := signingKeyFor(t, jwa.EdDSA)
	ok, err = Verify(signed, ed25519Key.Public())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignES256WithNamedKey(t *testing.T) {
	key, err := keys.Generate(keys.EC, "P-256", "k1")
	require.NoError(t, err)

	jws := jose.NewJWS(jose.NewHeader().MustSet("alg", "ES256").MustSet("kid", "k1"), []byte(claims))
	signed, err := Sign(jws, key)
	require.NoError(t, err)
	assert.Len(t, signed.Signature(), 64)
	assert.Equal(t, jws.Header().Bytes(), signed.Header().Bytes())
	assert.Empty(t, jws.Signature())

	parts := strings.Split(signed.Serialize(), ".")
	require.Len(t, parts, 3)
	assert.Equal(t, jose.EncodeSegment([]byte(claims)), parts[1])

	ok, err := Verify(signed, key.Public())
	require.NoError(t, err)
	assert.True(t, ok)

	unrelated, err := keys.Generate(keys.EC, "P-256", "k2")
	require.NoError(t, err)
	ok, err = Verify(signed, unrelated)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRFC7515HS256(t *testing.T) {
	const token = "eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		".eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFtcGxlLmNvbS9pc19yb290Ijp0cnVlfQ" +
		".dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	secret, err := jose.DecodeSegment("AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow")
	require.NoError(t, err)

	jws, err := jose.ParseJWS(token)
	require.NoError(t, err)
	ok, err := Verify(jws, keys.NewSymmetric(secret, ""))
	require.NoError(t, err)
	assert.True(t, ok)

	resigned, err := Sign(jws, keys.NewSymmetric(secret, ""))
	require.NoError(t, err)
	assert.Equal(t, token, resigned.Serialize())
}

func TestSignHMACEmptySecret(t *testing.T) {
	key := keys.NewSymmetric(nil, "")
	signed, err := Sign(newJWS(jwa.HS256), key)
	require.NoError(t, err)
	assert.Len(t, signed.Signature(), 32)

	ok, err := Verify(signed, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignKeyMismatch(t *testing.T) {
	ecKey := signingKeyFor(t, jwa.ES256)
	p384, err := keys.GenerateCurve(keys.P384, "")
	require.NoError(t, err)
	x25519, err := keys.GenerateCurve(keys.X25519, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		alg  string
		key  *keys.Key
	}{
		{"nil key", jwa.HS256, nil},
		{"EC key for HMAC", jwa.HS256, ecKey},
		{"symmetric key for RSA", jwa.RS256, keys.NewSymmetric([]byte("secret"), "")},
		{"wrong curve", jwa.ES256, p384},
		{"X25519 for EdDSA", jwa.EdDSA, x25519},
		{"public only", jwa.ES256, ecKey.Public()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(newJWS(tt.alg), tt.key)
			require.ErrorIs(t, err, ErrKeyMismatch)

			ok, err := Verify(newJWS(tt.alg).WithSignature(make([]byte, 64)), tt.key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	_, err = Sign(newJWS(jwa.ES256), ecKey.Public())
	assert.ErrorIs(t, err, keys.ErrMissingPrivateMaterial)
}

func TestSignUnsupportedAlgorithm(t *testing.T) {
	key := signingKeyFor(t, jwa.HS256)
	for _, alg := range []string{"HS1024", "hs256", "A128GCM", "RSA-OAEP", ""} {
		t.Run(alg, func(t *testing.T) {
			_, err := Sign(newJWS(alg), key)
			assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

			_, err = Verify(newJWS(alg), key)
			assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
		})
	}
}

func TestNoneAlgorithm(t *testing.T) {
	key := signingKeyFor(t, jwa.HS256)
	for _, alg := range []string{"none", "None", "NONE", "nOnE"} {
		t.Run(alg, func(t *testing.T) {
			signed, err := Sign(newJWS(alg), nil)
			require.NoError(t, err)
			assert.Empty(t, signed.Signature())
			assert.True(t, strings.HasSuffix(signed.Serialize(), "."))

			ok, err := Verify(signed, key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyWrongSignatureLength(t *testing.T) {
	key := signingKeyFor(t, jwa.ES256)
	signed, err := Sign(newJWS(jwa.ES256), key)
	require.NoError(t, err)

	for _, n := range []int{0, 63, 65, 72} {
		ok, err := Verify(signed.WithSignature(make([]byte, n)), key)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestSignedTokensParseWithGolangJWT(t *testing.T) {
	for _, alg := range []string{jwa.HS256, jwa.RS256, jwa.PS384, jwa.ES256, jwa.ES512, jwa.ES256K, jwa.EdDSA} {
		t.Run(alg, func(t *testing.T) {
			key := signingKeyFor(t, alg)
			signed, err := Sign(newJWS(alg), key)
			require.NoError(t, err)

			token, err := jwt.Parse(signed.Serialize(), func(token *jwt.Token) (interface{}, error) {
				return verificationKey(key), nil
			}, jwt.WithValidMethods([]string{alg}))
			require.NoError(t, err)
			assert.True(t, token.Valid)

			subject, err := token.Claims.GetSubject()
			require.NoError(t, err)
			assert.Equal(t, "alice", subject)
		})
	}
}

func TestVerifyGolangJWTTokens(t *testing.T) {
	key := signingKeyFor(t, jwa.ES384)
	token, err := jwt.NewWithClaims(jwt.SigningMethodES384, jwt.MapClaims{"sub": "bob"}).
		SignedString(key.PrivateKey())
	require.NoError(t, err)

	jws, err := jose.ParseJWS(token)
	require.NoError(t, err)
	ok, err := Verify(jws, key.Public())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignedTokensVerifyWithGoJose(t *testing.T) {
	key := signingKeyFor(t, jwa.PS256)
	signed, err := Sign(newJWS(jwa.PS256), key)
	require.NoError(t, err)

	parsed, err := gojose.ParseSigned(signed.Serialize(), []gojose.SignatureAlgorithm{gojose.PS256})
	require.NoError(t, err)
	payload, err := parsed.Verify(key.PublicKey().(*rsa.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, claims, string(payload))
}

// encryptionKeyFor returns a key sized for the alg/enc pair.
func encryptionKeyFor(t *testing.T, alg, enc string) *keys.Key {
	t.Helper()
	algDesc, err := jwa.Lookup(alg)
	require.NoError(t, err)
	encDesc, err := jwa.Lookup(enc)
	require.NoError(t, err)

	var key *keys.Key
	switch {
	case algDesc.AcceptsFamily(keys.RSA):
		return mustRSA(t, false)
	case alg == jwa.Direct:
		key, err = keys.GenerateSymmetric(8*encDesc.KeyBytes, "")
	case strings.HasPrefix(alg, "PBES2"):
		return keys.NewSymmetric([]byte("Thus from my lips, by yours, my sin is purged."), "")
	case strings.HasPrefix(alg, "ECDH-ES"):
		key, err = keys.GenerateCurve(keys.P256, "")
	default:
		key, err = keys.GenerateSymmetric(8*algDesc.KeyBytes, "")
	}
	require.NoError(t, err)
	return key
}

func encryptionHeader(alg, enc string) *jose.Header {
	header := jose.NewHeader().MustSet(jose.HeaderAlgorithm, alg).MustSet(jose.HeaderEncryption, enc)
	if strings.HasPrefix(alg, "PBES2") {
		header = header.MustSet("p2c", 1000)
	}
	return header
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	payload := []byte("The true sign of intelligence is not knowledge but imagination.")
	for _, alg := range jwa.Names(jwa.KeyManagement) {
		for _, enc := range jwa.Names(jwa.ContentEncryption) {
			t.Run(alg+"/"+enc, func(t *testing.T) {
				key := encryptionKeyFor(t, alg, enc)
				header := encryptionHeader(alg, enc)

				jwe, err := Encrypt(header, payload, key.Public())
				require.NoError(t, err)
				assert.Equal(t, alg, jwe.Algorithm())
				assert.Equal(t, enc, jwe.Encryption())
				assert.NotEqual(t, payload, jwe.Ciphertext())

				encDesc, err := jwa.Lookup(enc)
				require.NoError(t, err)
				assert.Len(t, jwe.IV(), encDesc.IVBytes)
				assert.Len(t, jwe.Tag(), encDesc.TagBytes)

				parsed, err := jose.ParseJWE(jwe.Serialize())
				require.NoError(t, err)
				plaintext, err := Decrypt(parsed, key)
				require.NoError(t, err)
				assert.Equal(t, payload, plaintext)

				// The caller's header is never modified.
				assert.Equal(t, encryptionHeader(alg, enc).Bytes(), header.Bytes())
			})
		}
	}
}

func TestEncryptDecryptECDHCurves(t *testing.T) {
	curves := []keys.Curve{keys.P256, keys.Secp256k1, keys.P384, keys.P521, keys.X25519, keys.X448}
	for _, curve := range curves {
		for _, alg := range []string{jwa.ECDHES, jwa.ECDHESA256KW} {
			t.Run(string(curve)+"/"+alg, func(t *testing.T) {
				key, err := keys.GenerateCurve(curve, "")
				require.NoError(t, err)

				jwe, err := Encrypt(encryptionHeader(alg, jwa.A256GCM), []byte(claims), key.Public())
				require.NoError(t, err)

				epk, ok := jwe.Header().Get("epk")
				require.True(t, ok)
				ephemeral, err := keys.FromJWK(epk)
				require.NoError(t, err)
				assert.Equal(t, curve, ephemeral.Curve())
				assert.False(t, ephemeral.HasPrivate())

				plaintext, err := Decrypt(jwe, key)
				require.NoError(t, err)
				assert.Equal(t, claims, string(plaintext))

				other, err := keys.GenerateCurve(curve, "")
				require.NoError(t, err)
				_, err = Decrypt(jwe, other)
				assert.ErrorIs(t, err, ErrDecryptionFailed)
			})
		}
	}
}

func TestEncryptKeepsPartyInfo(t *testing.T) {
	key, err := keys.GenerateCurve(keys.P384, "")
	require.NoError(t, err)
	header := encryptionHeader(jwa.ECDHESA128KW, jwa.A128CBCHS256).
		MustSet("apu", jose.EncodeSegment([]byte("Alice"))).
		MustSet("apv", jose.EncodeSegment([]byte("Bob")))

	jwe, err := Encrypt(header, []byte(claims), key.Public())
	require.NoError(t, err)
	assert.Equal(t, []string{"alg", "enc", "apu", "apv", "epk"}, jwe.Header().Names())

	plaintext, err := Decrypt(jwe, key)
	require.NoError(t, err)
	assert.Equal(t, claims, string(plaintext))

	// Changing the party info changes both the derived key and the AAD.
	altered := jwe.WithHeader(jwe.Header().MustSet("apv", jose.EncodeSegment([]byte("Eve"))))
	_, err = Decrypt(altered, key)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptPBES2Parameters(t *testing.T) {
	password := keys.NewSymmetric([]byte("hunter2"), "")

	jwe, err := Encrypt(encryptionHeader(jwa.PBES2HS256, jwa.A128GCM), []byte(claims), password)
	require.NoError(t, err)
	count, ok := jwe.Header().Get("p2c")
	require.True(t, ok)
	assert.Equal(t, "1000", string(count))
	salt, ok := jwe.Header().GetString("p2s")
	require.True(t, ok)
	decoded, err := jose.DecodeSegment(salt)
	require.NoError(t, err)
	assert.Len(t, decoded, 16)

	again, err := Encrypt(encryptionHeader(jwa.PBES2HS256, jwa.A128GCM), []byte(claims), password)
	require.NoError(t, err)
	salt2, _ := again.Header().GetString("p2s")
	assert.NotEqual(t, salt, salt2)

	noCount := jose.NewHeader().MustSet("alg", jwa.PBES2HS512).MustSet("enc", jwa.A256CBCHS512)
	jwe, err = Encrypt(noCount, []byte(claims), password)
	require.NoError(t, err)
	count, _ = jwe.Header().Get("p2c")
	assert.Equal(t, "10000", string(count))

	hostile := jwe.WithHeader(jwe.Header().MustSet("p2c", MaxPBES2Count+1))
	_, err = Decrypt(hostile, password)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt(jwe, keys.NewSymmetric([]byte("hunter3"), ""))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptFreshIV(t *testing.T) {
	key := encryptionKeyFor(t, jwa.Direct, jwa.A128GCM)
	header := encryptionHeader(jwa.Direct, jwa.A128GCM)

	a, err := Encrypt(header, []byte(claims), key)
	require.NoError(t, err)
	b, err := Encrypt(header, []byte(claims), key)
	require.NoError(t, err)
	assert.NotEqual(t, a.IV(), b.IV())
	assert.NotEqual(t, a.Ciphertext(), b.Ciphertext())
	assert.Empty(t, a.EncryptedKey())
}

func TestDecryptTampering(t *testing.T) {
	key := encryptionKeyFor(t, jwa.A256KW, jwa.A256CBCHS512)
	jwe, err := Encrypt(encryptionHeader(jwa.A256KW, jwa.A256CBCHS512), []byte(claims), key)
	require.NoError(t, err)

	flip := func(b []byte) []byte {
		b[0] ^= 0x80
		return b
	}
	tests := map[string]*jose.JWE{
		"tag":           jwe.WithTag(flip(jwe.Tag())),
		"ciphertext":    jwe.WithCiphertext(flip(jwe.Ciphertext())),
		"iv":            jwe.WithIV(flip(jwe.IV())),
		"encrypted key": jwe.WithEncryptedKey(flip(jwe.EncryptedKey())),
		"header":        jwe.WithHeader(jwe.Header().MustSet("kid", "x")),
		"short tag":     jwe.WithTag(jwe.Tag()[:16]),
		"empty iv":      jwe.WithIV(nil),
	}
	for name, tampered := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt(tampered, key)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}

	other := encryptionKeyFor(t, jwa.A256KW, jwa.A256CBCHS512)
	_, err = Decrypt(jwe, other)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRSAWrongKey(t *testing.T) {
	for _, alg := range []string{jwa.RSA1_5, jwa.RSAOAEP, jwa.RSAOAEP512} {
		t.Run(alg, func(t *testing.T) {
			jwe, err := Encrypt(encryptionHeader(alg, jwa.A128GCM), []byte(claims), mustRSA(t, false).Public())
			require.NoError(t, err)

			_, err = Decrypt(jwe, mustRSA(t, true))
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}

func TestDecryptMalformedDirectToken(t *testing.T) {
	jwe, err := jose.ParseJWE("eyJhbGciOiJkaXIiLCJlbmMiOiJBMTI4R0NNIn0...YWJj.")
	require.NoError(t, err)

	key := encryptionKeyFor(t, jwa.Direct, jwa.A128GCM)
	_, err = Decrypt(jwe, key)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptKeyMismatch(t *testing.T) {
	rsaK := mustRSA(t, false)
	ed, err := keys.GenerateCurve(keys.Ed25519, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		alg  string
		enc  string
		key  *keys.Key
	}{
		{"nil key", jwa.RSAOAEP, jwa.A128GCM, nil},
		{"symmetric for RSA", jwa.RSAOAEP256, jwa.A128GCM, keys.NewSymmetric(make([]byte, 16), "")},
		{"RSA for AES-KW", jwa.A128KW, jwa.A128GCM, rsaK},
		{"short KEK", jwa.A256KW, jwa.A128GCM, keys.NewSymmetric(make([]byte, 16), "")},
		{"short GCM KEK", jwa.A192GCMKW, jwa.A128GCM, keys.NewSymmetric(make([]byte, 16), "")},
		{"dir size", jwa.Direct, jwa.A256GCM, keys.NewSymmetric(make([]byte, 16), "")},
		{"Ed25519 for ECDH", jwa.ECDHES, jwa.A128GCM, ed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encrypt(encryptionHeader(tt.alg, tt.enc), []byte(claims), tt.key)
			assert.ErrorIs(t, err, ErrKeyMismatch)
		})
	}

	jwe, err := Encrypt(encryptionHeader(jwa.RSAOAEP256, jwa.A256GCM), []byte(claims), rsaK.Public())
	require.NoError(t, err)
	_, err = Decrypt(jwe, rsaK.Public())
	assert.ErrorIs(t, err, ErrKeyMismatch)
	assert.ErrorIs(t, err, keys.ErrMissingPrivateMaterial)
}

func TestEncryptUnsupported(t *testing.T) {
	key := encryptionKeyFor(t, jwa.A128KW, jwa.A128GCM)
	tests := []struct {
		name   string
		header *jose.Header
	}{
		{"unknown alg", encryptionHeader("A512KW", jwa.A128GCM)},
		{"unknown enc", encryptionHeader(jwa.A128KW, "A128CBC")},
		{"signature alg", encryptionHeader(jwa.HS256, jwa.A128GCM)},
		{"alg in enc", encryptionHeader(jwa.A128KW, jwa.A128KW)},
		{"missing enc", jose.NewHeader().MustSet("alg", jwa.A128KW)},
		{"compression", encryptionHeader(jwa.A128KW, jwa.A128GCM).MustSet("zip", "DEF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encrypt(tt.header, []byte(claims), key)
			assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
		})
	}
}

func TestEncryptedTokensDecryptWithGoJose(t *testing.T) {
	rsaK := mustRSA(t, false)
	ec, err := keys.GenerateCurve(keys.P256, "")
	require.NoError(t, err)
	kek, err := keys.GenerateSymmetric(128, "")
	require.NoError(t, err)

	tests := []struct {
		alg     string
		enc     string
		key     *keys.Key
		goKey   interface{}
		goAlg   gojose.KeyAlgorithm
		goEnc   gojose.ContentEncryption
		publish bool
	}{
		{jwa.RSAOAEP256, jwa.A256GCM, rsaK, rsaK.PrivateKey().(*rsa.PrivateKey), gojose.RSA_OAEP_256, gojose.A256GCM, true},
		{jwa.ECDHESA128KW, jwa.A128CBCHS256, ec, ec.PrivateKey().(*ecdsa.PrivateKey), gojose.ECDH_ES_A128KW, gojose.A128CBC_HS256, true},
		{jwa.ECDHES, jwa.A192GCM, ec, ec.PrivateKey().(*ecdsa.PrivateKey), gojose.ECDH_ES, gojose.A192GCM, true},
		{jwa.A128KW, jwa.A256CBCHS512, kek, kek.Secret(), gojose.A128KW, gojose.A256CBC_HS512, false},
		{jwa.A128GCMKW, jwa.A128GCM, kek, kek.Secret(), gojose.A128GCMKW, gojose.A128GCM, false},
	}
	for _, tt := range tests {
		t.Run(tt.alg+"/"+tt.enc, func(t *testing.T) {
			encryptWith := tt.key
			if tt.publish {
				encryptWith = tt.key.Public()
			}
			jwe, err := Encrypt(encryptionHeader(tt.alg, tt.enc), []byte(claims), encryptWith)
			require.NoError(t, err)

			parsed, err := gojose.ParseEncrypted(jwe.Serialize(),
				[]gojose.KeyAlgorithm{tt.goAlg}, []gojose.ContentEncryption{tt.goEnc})
			require.NoError(t, err)
			plaintext, err := parsed.Decrypt(tt.goKey)
			require.NoError(t, err)
			assert.Equal(t, claims, string(plaintext))
		})
	}
}

func TestDecryptGoJoseTokens(t *testing.T) {
	rsaK := mustRSA(t, false)
	ec, err := keys.GenerateCurve(keys.P521, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		key   *keys.Key
		goKey interface{}
		goAlg gojose.KeyAlgorithm
		goEnc gojose.ContentEncryption
	}{
		{"RSA-OAEP", rsaK, rsaK.PublicKey(), gojose.RSA_OAEP, gojose.A128CBC_HS256},
		{"ECDH-ES+A256KW", ec, ec.PublicKey(), gojose.ECDH_ES_A256KW, gojose.A256GCM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypter, err := gojose.NewEncrypter(tt.goEnc, gojose.Recipient{Algorithm: tt.goAlg, Key: tt.goKey}, nil)
			require.NoError(t, err)
			obj, err := encrypter.Encrypt([]byte(claims))
			require.NoError(t, err)
			token, err := obj.CompactSerialize()
			require.NoError(t, err)

			jwe, err := jose.ParseJWE(token)
			require.NoError(t, err)
			plaintext, err := Decrypt(jwe, tt.key)
			require.NoError(t, err)
			assert.Equal(t, claims, string(plaintext))
		})
	}
}
