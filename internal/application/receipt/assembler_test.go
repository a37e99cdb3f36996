package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Assembler, *gormstore.Store, *memory.Catalog) {
	t.Helper()
	db, err := gormstore.Open(gormstore.Config{DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, observability.NopLogger())
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })

	store := gormstore.NewStore(db, time.Second)
	cat := memory.NewCatalog(catalog.Product{ID: "ebook", Title: "Practical Go", Price: decimal.RequireFromString("20"), AssetLocation: "s3://x"})
	dir := memory.NewDirectory(identity.Buyer{UserID: "ana", Name: "Ana", Email: "ana@example.com"})
	a := NewAssembler(store, cat, dir, id.NewSequence("rc-1", "rc-2"), func() time.Time { return issuedAt }, nil)
	return a, store, cat
}

func insertSession(t *testing.T, store *gormstore.Store, status payment.Status) *payment.Session {
	t.Helper()
	s := payment.NewSession(uuid.NewString(), "ana", "ebook", payment.Method{ID: "bank", Kind: payment.KindPlain}, decimal.RequireFromString("20"), issuedAt)
	s.Reference = "TRX-9"
	s.Status = status
	require.NoError(t, store.Sessions().Insert(context.Background(), s))
	return s
}

func TestCreateSnapshotsOncePerTransaction(t *testing.T) {
	ctx := context.Background()
	a, store, cat := setup(t)
	s := insertSession(t, store, payment.StatusVerified)

	rc, err := a.Create(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "rc-1", rc.ID)
	assert.Equal(t, domreceipt.ProductSnapshot{ID: "ebook", Title: "Practical Go", Price: "20.00"}, rc.Product)
	assert.Equal(t, "Ana", rc.Buyer.Name)
	assert.Equal(t, "TRX-9", rc.Reference)

	cat.Put(catalog.Product{ID: "ebook", Title: "Renamed", Price: decimal.RequireFromString("99"), AssetLocation: "s3://x"})
	again, err := a.Create(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "rc-1", again.ID)
	assert.Equal(t, "Practical Go", again.Product.Title)
}

func TestCreateRequiresVerifiedSession(t *testing.T) {
	a, store, _ := setup(t)
	s := insertSession(t, store, payment.StatusPendingVerification)

	_, err := a.Create(context.Background(), s.ID)
	require.ErrorIs(t, err, domreceipt.ErrNotVerified)
}

func TestGetIsScopedToBuyer(t *testing.T) {
	ctx := context.Background()
	a, store, _ := setup(t)
	s := insertSession(t, store, payment.StatusVerified)
	rc, err := a.Create(ctx, s.ID)
	require.NoError(t, err)

	got, err := a.Get(ctx, rc.ID, "ana")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("20")))

	_, err = a.Get(ctx, rc.ID, "bo")
	require.ErrorIs(t, err, domreceipt.ErrNotFound)
	_, err = a.Get(ctx, "missing", "ana")
	require.ErrorIs(t, err, domreceipt.ErrNotFound)
}
