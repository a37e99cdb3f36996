package ports

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
)

// Repositories groups the stores that take part in the accept unit.
type Repositories interface {
	Sessions() payment.Repository
	References() payment.ReferenceRegistry
	Entitlements() fulfillment.Repository
	Receipts() receipt.Repository
	Tokens() delivery.Repository
}

// Store hands out repositories bound either to the pool or to one transaction.
// fn must use only the tx it receives; an error return rolls everything back.
type Store interface {
	Repositories
	InTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// IDGenerator mints opaque identifiers for sessions and receipts.
type IDGenerator interface {
	NewID() string
}

// Clock is injected so expiry and timestamps are testable.
type Clock func() time.Time

// AuditEntry is one row of the append-only audit trail.
type AuditEntry struct {
	Event      string
	SessionID  string
	Actor      string
	Payload    string
	OccurredAt time.Time
}

// AuditLog persists audit entries; it is written after the audited change commits.
type AuditLog interface {
	Append(ctx context.Context, e AuditEntry) error
}
