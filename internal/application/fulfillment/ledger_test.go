package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	domfulfillment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gormstore.Open(gormstore.Config{DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, observability.NopLogger())
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewLedger(gormstore.NewStore(db, time.Second), func() time.Time { return now }, nil)
}

func TestGrantKeepsFirstRecord(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	owned, err := l.Owns(ctx, "ana", "ebook")
	require.NoError(t, err)
	require.False(t, owned)

	first, err := l.Grant(ctx, "ana", "ebook", "tx-1")
	require.NoError(t, err)
	again, err := l.Grant(ctx, "ana", "ebook", "tx-2")
	require.NoError(t, err)
	require.Equal(t, "tx-1", again.TransactionID)
	require.Equal(t, first.GrantedAt, again.GrantedAt)

	owned, err = l.Owns(ctx, "ana", "ebook")
	require.NoError(t, err)
	require.True(t, owned)

	_, err = l.Record(ctx, "bo", "ebook")
	require.ErrorIs(t, err, domfulfillment.ErrNotFound)
}

func TestGrantRequiresIDs(t *testing.T) {
	_, err := newLedger(t).Grant(context.Background(), "ana", " ", "tx-1")
	require.ErrorIs(t, err, failure.ErrInvalidInput)
}
