package delivery

import (
	"bytes"
	"context"
	"testing"
	"time"

	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gormstore.Open(gormstore.Config{DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, observability.NopLogger())
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })
	return gormstore.NewStore(db, time.Second)
}

func TestMintIsIdempotentUntilRedeemed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewIssuer(newTestStore(t), func() time.Time { return now }, 0, nil)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())

	first, err := issuer.Mint(ctx, "t1", "s3://a")
	require.NoError(t, err)
	second, err := issuer.Mint(ctx, "t1", "s3://a")
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	loc, err := issuer.Resolve(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "s3://a", loc)

	third, err := issuer.Mint(ctx, "t1", "s3://a")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, third.Token)
}

func TestMintUsesInjectedEntropy(t *testing.T) {
	issuer := NewIssuer(newTestStore(t), nil, time.Minute, nil, WithRandom(bytes.NewReader(make([]byte, tokenBytes))))
	tok, err := issuer.Mint(context.Background(), "t1", "s3://a")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", tok.Token)

	_, err = issuer.MintTx(context.Background(), newTestStore(t), "t2", "s3://a", true)
	require.Error(t, err, "exhausted entropy must fail the mint")
}

func TestResolveRejections(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	issuer := NewIssuer(newTestStore(t), func() time.Time { return now }, time.Minute, nil)

	_, err := issuer.Resolve(ctx, " ")
	require.ErrorIs(t, err, domdelivery.ErrTokenUnknown)
	assert.True(t, IsRedemptionError(err))

	_, err = issuer.Mint(ctx, "", "s3://a")
	require.ErrorIs(t, err, failure.ErrInvalidInput)
}
