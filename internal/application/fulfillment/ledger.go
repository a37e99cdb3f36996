package fulfillment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	domfulfillment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	ledgerService = "fulfillment-ledger"
	useCaseGrant  = "fulfillment.grant"
	useCaseOwns   = "fulfillment.owns"
)

// Ledger records who owns what. A record's existence is the only ownership fact.
type Ledger struct {
	store ports.Store
	clock ports.Clock
	inst  *application.Instrument
}

func NewLedger(store ports.Store, clock ports.Clock, tel observability.Observability) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{store: store, clock: clock, inst: application.NewInstrument(tel, ledgerService)}
}

// Grant is idempotent: when the pair is already owned the existing record is
// returned unchanged, whichever transaction created it.
func (l *Ledger) Grant(ctx context.Context, userID, productID, transactionID string) (_ *domfulfillment.Record, err error) {
	ctx, call := l.inst.Start(ctx, useCaseGrant, "Grant",
		observability.F("user_id", userID),
		observability.F("product_id", productID),
		observability.F("transaction_id", transactionID),
	)
	defer func() { call.End(err) }()

	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" || strings.TrimSpace(transactionID) == "" {
		return nil, failure.Invalid("user, product and transaction ids are required")
	}
	rec, created, err := l.GrantTx(ctx, l.store, userID, productID, transactionID)
	if err != nil {
		return nil, err
	}
	call.With(observability.F("created", created))
	return rec, nil
}

// GrantTx grants through repos, which may be bound to an open transaction.
func (l *Ledger) GrantTx(ctx context.Context, repos ports.Repositories, userID, productID, transactionID string) (*domfulfillment.Record, bool, error) {
	return repos.Entitlements().Grant(ctx, domfulfillment.Record{
		UserID:        userID,
		ProductID:     productID,
		TransactionID: transactionID,
		GrantedAt:     l.clock().UTC(),
	})
}

func (l *Ledger) Owns(ctx context.Context, userID, productID string) (owned bool, err error) {
	ctx, call := l.inst.Start(ctx, useCaseOwns, "Owns",
		observability.F("user_id", userID),
		observability.F("product_id", productID),
	)
	defer func() { call.End(err) }()

	_, err = l.store.Entitlements().Find(ctx, userID, productID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domfulfillment.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Record returns the entitlement of the pair or domfulfillment.ErrNotFound.
func (l *Ledger) Record(ctx context.Context, userID, productID string) (*domfulfillment.Record, error) {
	return l.store.Entitlements().Find(ctx, userID, productID)
}
