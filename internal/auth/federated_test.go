package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://accounts.example.com"
	testAudience = "writerspace-web"
)

func newTestKeys(t *testing.T) (jwk.Key, jwk.Set) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	private, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.RS256))

	public, err := jwk.PublicKeyOf(private)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	return private, set
}

func signToken(t *testing.T, key jwk.Key, issuer string, expires time.Time) string {
	t.Helper()

	token, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{testAudience}).
		Subject("subject-123").
		IssuedAt(time.Now()).
		Expiration(expires).
		Claim("email", "Reader@Example.com").
		Claim("name", "Reader").
		Claim("picture", "https://example.com/p.png").
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)

	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	key, set := newTestKeys(t)
	v := NewVerifierWithKeySet("google", testIssuer, testAudience, set)

	t.Run("valid token", func(t *testing.T) {
		identity, err := v.Verify(context.Background(), signToken(t, key, testIssuer, time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "google", identity.Provider)
		assert.Equal(t, "subject-123", identity.Subject)
		assert.Equal(t, "Reader@Example.com", identity.Email)
		assert.Equal(t, "Reader", identity.Name)
		assert.Equal(t, "https://example.com/p.png", identity.Picture)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := v.Verify(context.Background(), signToken(t, key, "https://evil.example.com", time.Now().Add(time.Hour)))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := v.Verify(context.Background(), signToken(t, key, testIssuer, time.Now().Add(-time.Hour)))
		assert.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, _ := newTestKeys(t)
		_, err := v.Verify(context.Background(), signToken(t, other, testIssuer, time.Now().Add(time.Hour)))
		assert.Error(t, err)
	})
}

func TestVerifier_Disabled(t *testing.T) {
	var v *Verifier
	_, err := v.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrFederatedDisabled)
}
