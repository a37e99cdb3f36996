package memory

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogReturnsCopies(t *testing.T) {
	c := NewCatalog(catalog.Product{ID: "p1", Title: "Ebook", Price: decimal.RequireFromString("20.00"), AssetLocation: "s3://bucket/ebook.pdf"})

	p, err := c.Product(context.Background(), "p1")
	require.NoError(t, err)
	p.Title = "mutated"

	again, err := c.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ebook", again.Title)

	_, err = c.Product(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalogHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCatalog().Product(ctx, "p1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryFallsBackToID(t *testing.T) {
	d := NewDirectory(identity.Buyer{UserID: "u1", Name: "Ana", Email: "ana@example.com"})

	b, err := d.Buyer(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", b.Name)

	b, err = d.Buyer(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, identity.Buyer{UserID: "u2"}, b)
}
