package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.example.test"

func signedToken(t *testing.T, priv ed25519.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	require.NoError(t, err)
	return s
}

func newTestValidator(t *testing.T) (*Validator, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	v := NewStaticValidator(testIssuer, func(*jwt.Token) (any, error) { return pub, nil })
	return v, priv
}

func TestValidate_Accepts(t *testing.T) {
	v, priv := newTestValidator(t)
	tok := signedToken(t, priv, jwt.MapClaims{
		"iss":  testIssuer,
		"sub":  "user-42",
		"name": "Ada Lovelace",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", UserIDFromClaims(claims))
	assert.Equal(t, "Ada", FirstNameFromClaims(claims))
}

func TestValidate_RejectsWrongIssuer(t *testing.T) {
	v, priv := newTestValidator(t)
	tok := signedToken(t, priv, jwt.MapClaims{"iss": "https://evil.test", "sub": "x"})
	_, err := v.Validate(tok)
	assert.Error(t, err)
}

func TestValidate_RejectsExpired(t *testing.T) {
	v, priv := newTestValidator(t)
	tok := signedToken(t, priv, jwt.MapClaims{"iss": testIssuer, "exp": time.Now().Add(-time.Minute).Unix()})
	_, err := v.Validate(tok)
	assert.Error(t, err)
}

func TestValidate_RejectsOtherKey(t *testing.T) {
	v, _ := newTestValidator(t)
	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	tok := signedToken(t, other, jwt.MapClaims{"iss": testIssuer})
	_, err = v.Validate(tok)
	assert.Error(t, err)
}

func TestValidate_NotConfigured(t *testing.T) {
	v, err := NewValidator("")
	require.NoError(t, err)
	assert.False(t, v.Enabled())
	_, err = v.Validate("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewValidator_DerivesIssuer(t *testing.T) {
	v, err := NewValidator("https://auth.example.test/neondb/auth/")
	require.NoError(t, err)
	assert.True(t, v.Enabled())
	assert.Equal(t, "https://auth.example.test", v.issuer)
	assert.Equal(t, "https://auth.example.test/neondb/auth/.well-known/jwks.json", v.jwksURL)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("Bearer "))
}

func TestClaimsFallbacks(t *testing.T) {
	assert.Equal(t, "Player", FirstNameFromClaims(jwt.MapClaims{"name": "   "}))
	assert.Equal(t, "id-1", UserIDFromClaims(jwt.MapClaims{"id": "id-1"}))
	assert.Empty(t, UserIDFromClaims(jwt.MapClaims{}))
}
