package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/opencourse/tarpaulin/pkg/jwtx"
)

func TestNewHS256RequiresSecret(t *testing.T) {
	_, err := jwtx.NewHS256(nil, "tarpaulin")
	require.Error(t, err)
}

func TestHS256RoundTrip(t *testing.T) {
	h, err := jwtx.NewHS256([]byte("test-secret"), "tarpaulin")
	require.NoError(t, err)

	claims := jwtx.NewCredentialClaims(
		"user-1", "alice@example.com", "student",
		time.Hour, "tarpaulin", time.Now().UTC(),
	)

	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "student", got.Role)
	require.Equal(t, "tarpaulin", got.Issuer)
}

func TestHS256VerifyFailures(t *testing.T) {
	h, err := jwtx.NewHS256([]byte("test-secret"), "tarpaulin")
	require.NoError(t, err)

	t.Run("expired credential", func(t *testing.T) {
		claims := jwtx.NewCredentialClaims(
			"user-1", "alice@example.com", "student",
			time.Hour, "tarpaulin", time.Now().UTC().Add(-2*time.Hour),
		)
		token, err := h.Sign(claims)
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("different-secret"), "tarpaulin")
		require.NoError(t, err)

		claims := jwtx.NewCredentialClaims(
			"user-1", "alice@example.com", "student",
			time.Hour, "tarpaulin", time.Now().UTC(),
		)
		token, err := other.Sign(claims)
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := jwtx.NewCredentialClaims(
			"user-1", "alice@example.com", "student",
			time.Hour, "someone-else", time.Now().UTC(),
		)
		token, err := h.Sign(claims)
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := jwtx.NewCredentialClaims(
			"user-1", "alice@example.com", "student",
			time.Hour, "tarpaulin", time.Now().UTC(),
		)
		// Same secret, different HMAC variant. Only HS256 is accepted.
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := h.Verify("not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}
