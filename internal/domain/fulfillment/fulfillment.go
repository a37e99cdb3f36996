package fulfillment

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
)

var ErrNotFound = failure.New("NOT_FOUND", "fulfillment: record not found")

// Record is the durable fact that a user owns a product.
type Record struct {
	UserID        string
	ProductID     string
	TransactionID string
	GrantedAt     time.Time
}

// Repository stores entitlements under a uniqueness constraint on (UserID, ProductID).
type Repository interface {
	// Grant inserts r unless a record for the pair exists, and returns the stored
	// record either way. created reports whether this call inserted it.
	Grant(ctx context.Context, r Record) (stored *Record, created bool, err error)
	Find(ctx context.Context, userID, productID string) (*Record, error)
	DeleteByTransaction(ctx context.Context, transactionID string) error
}
