package receipt

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = failure.New("NOT_FOUND", "receipt: not found")
	ErrNotVerified = failure.New("NOT_VERIFIED", "receipt: transaction is not verified")
)

// ProductSnapshot freezes what was sold at issue time.
type ProductSnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// BuyerSnapshot freezes who bought it at issue time.
type BuyerSnapshot struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Receipt is immutable once stored.
type Receipt struct {
	ID            string
	TransactionID string
	Product       ProductSnapshot
	Buyer         BuyerSnapshot
	Amount        decimal.Decimal
	MethodID      string
	Reference     string
	IssuedAt      time.Time
}

// Repository stores at most one receipt per transaction.
type Repository interface {
	// Create inserts r unless a receipt for r.TransactionID exists, returning the stored one.
	Create(ctx context.Context, r *Receipt) (stored *Receipt, created bool, err error)
	Get(ctx context.Context, id string) (*Receipt, error)
	GetByTransaction(ctx context.Context, transactionID string) (*Receipt, error)
	DeleteByTransaction(ctx context.Context, transactionID string) error
}
