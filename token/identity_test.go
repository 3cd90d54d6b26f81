package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/jrsteele09/claims-web/token"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("not-the-servers-key"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	t.Run("full identity", func(t *testing.T) {
		raw := signedToken(t, jwtlib.MapClaims{
			"sub":       "a@b.com",
			"userId":    "6f1c3a52-1111-2222-3333-444455556666",
			"email":     "a@b.com",
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"roles":     []string{"ROLE_EMPLOYEE"},
			"exp":       1700000000,
		})

		identity, err := token.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, "a@b.com", identity.Sub)
		require.Equal(t, "6f1c3a52-1111-2222-3333-444455556666", identity.UserID)
		require.Equal(t, "Ada Lovelace", identity.DisplayName())
		require.Equal(t, []string{"ROLE_EMPLOYEE"}, identity.Roles)
		require.NotNil(t, identity.Exp)
		require.Equal(t, float64(1700000000), *identity.Exp)
	})

	t.Run("signature is not checked", func(t *testing.T) {
		raw := signedToken(t, jwtlib.MapClaims{"sub": "x@y.com"})
		identity, err := token.Decode(raw + "tampered")
		require.NoError(t, err)
		require.Equal(t, "x@y.com", identity.Sub)
	})

	t.Run("no exp claim", func(t *testing.T) {
		identity, err := token.Decode(signedToken(t, jwtlib.MapClaims{"sub": "x@y.com"}))
		require.NoError(t, err)
		require.Nil(t, identity.Exp)
		require.False(t, identity.ExpiredAt(time.Unix(1<<40, 0)))
		require.True(t, identity.ExpiresAt().IsZero())
	})

	for _, malformed := range []string{"", "   ", "not-a-jwt", "a.b", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"} {
		t.Run("malformed "+malformed, func(t *testing.T) {
			_, err := token.Decode(malformed)
			require.ErrorIs(t, err, apperrors.ErrMalformedToken)
		})
	}
}

func TestIdentity_ExpiredAt(t *testing.T) {
	exp := float64(1700000000)
	identity := token.Identity{Sub: "a@b.com", Exp: &exp}

	require.True(t, identity.ExpiredAt(time.Unix(1700000001, 0)))
	require.True(t, identity.ExpiredAt(time.Unix(1700000000, 1)))
	require.False(t, identity.ExpiredAt(time.Unix(1700000000, 0)), "exp equal to now is still valid")
	require.False(t, identity.ExpiredAt(time.Unix(1699999999, 0)))
}

func TestIdentity_DisplayName(t *testing.T) {
	require.Equal(t, "Ada", token.Identity{FirstName: "Ada", Sub: "a@b.com"}.DisplayName())
	require.Equal(t, "a@b.com", token.Identity{Sub: "a@b.com", Email: "other@b.com"}.DisplayName())
	require.Equal(t, "other@b.com", token.Identity{Email: "other@b.com"}.DisplayName())
	require.Equal(t, "User", token.Identity{}.DisplayName())
}

func TestBearer(t *testing.T) {
	exp := float64(1700000000)
	bearer := token.Bearer("raw", &token.Identity{Exp: &exp})
	require.Equal(t, "raw", bearer.AccessToken)
	require.Equal(t, "Bearer", bearer.Type())
	require.Equal(t, time.Unix(1700000000, 0), bearer.Expiry)
}
