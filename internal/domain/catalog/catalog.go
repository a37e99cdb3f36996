package catalog

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/shopspring/decimal"
)

var ErrNotFound = failure.New("PRODUCT_NOT_FOUND", "catalog: product not found")

// Product is the slice of the external catalog the checkout core needs.
type Product struct {
	ID            string
	Title         string
	Price         decimal.Decimal
	AssetLocation string
}

// Catalog is owned by an external collaborator; the core only reads it.
type Catalog interface {
	Product(ctx context.Context, id string) (*Product, error)
}
