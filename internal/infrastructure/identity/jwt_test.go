package identity

import (
	"context"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifierRoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("s3cret", "storefront")
	require.NoError(t, err)

	tok, err := v.Sign("user-42", time.Minute)
	require.NoError(t, err)

	id, err := v.UserID(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestHMACVerifierRejects(t *testing.T) {
	v, err := NewHMACVerifier("s3cret", "storefront")
	require.NoError(t, err)
	other, err := NewHMACVerifier("other", "storefront")
	require.NoError(t, err)
	wrongIssuer, err := NewHMACVerifier("s3cret", "elsewhere")
	require.NoError(t, err)

	forged, err := other.Sign("user-42", time.Minute)
	require.NoError(t, err)
	expired, err := v.Sign("user-42", -time.Hour)
	require.NoError(t, err)
	foreign, err := wrongIssuer.Sign("user-42", time.Minute)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u", Issuer: "storefront"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	noSub, err := v.Sign("", time.Minute)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"expired":      expired,
		"wrong issuer": foreign,
		"no expiry":    noExp,
		"no subject":   noSub,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.UserID(context.Background(), tok)
			require.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier(" ", "")
	require.Error(t, err)
}

func TestHeaderTrust(t *testing.T) {
	id, err := HeaderTrust{}.UserID(context.Background(), " u1 ")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = HeaderTrust{}.UserID(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}
