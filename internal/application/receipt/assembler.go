package receipt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	assemblerService = "receipt-assembler"
	useCaseCreate    = "receipt.create"
	useCaseGet       = "receipt.get"
	lookupTimeout    = 3 * time.Second
)

// Assembler issues one immutable receipt per verified transaction.
type Assembler struct {
	store     ports.Store
	catalog   catalog.Catalog
	directory identity.Directory
	ids       ports.IDGenerator
	clock     ports.Clock
	inst      *application.Instrument
}

func NewAssembler(store ports.Store, cat catalog.Catalog, dir identity.Directory, ids ports.IDGenerator, clock ports.Clock, tel observability.Observability) *Assembler {
	if clock == nil {
		clock = time.Now
	}
	return &Assembler{
		store:     store,
		catalog:   cat,
		directory: dir,
		ids:       ids,
		clock:     clock,
		inst:      application.NewInstrument(tel, assemblerService),
	}
}

// Snapshot is the catalog and profile data frozen into a receipt.
type Snapshot struct {
	Product catalog.Product
	Buyer   identity.Buyer
}

// Snapshot reads what a receipt for s would freeze. It runs outside any
// transaction since both collaborators are external.
func (a *Assembler) Snapshot(ctx context.Context, s *payment.Session) (*Snapshot, error) {
	var snap Snapshot
	err := application.WithTimeout(ctx, lookupTimeout, func(ctx context.Context) error {
		p, err := a.catalog.Product(ctx, s.ProductID)
		if err != nil {
			return err
		}
		snap.Product = *p
		snap.Buyer, err = a.directory.Buyer(ctx, s.UserID)
		return err
	})
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, payment.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Create returns the receipt of a verified transaction, issuing it on first call.
func (a *Assembler) Create(ctx context.Context, transactionID string) (rc *domreceipt.Receipt, err error) {
	ctx, call := a.inst.Start(ctx, useCaseCreate, "CreateReceipt", observability.F("transaction_id", transactionID))
	defer func() { call.End(err) }()

	if strings.TrimSpace(transactionID) == "" {
		return nil, failure.Invalid("transaction id is required")
	}
	s, err := a.store.Sessions().Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if s.Status != payment.StatusVerified {
		return nil, domreceipt.ErrNotVerified
	}
	if existing, err := a.store.Receipts().GetByTransaction(ctx, transactionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domreceipt.ErrNotFound) {
		return nil, err
	}
	snap, err := a.Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	rc, created, err := a.CreateTx(ctx, a.store, s, snap)
	if err != nil {
		return nil, err
	}
	call.With(observability.F("receipt_id", rc.ID), observability.F("created", created))
	return rc, nil
}

// CreateTx stores the receipt of s through repos. s must already be verified,
// possibly by the same open transaction.
func (a *Assembler) CreateTx(ctx context.Context, repos ports.Repositories, s *payment.Session, snap *Snapshot) (*domreceipt.Receipt, bool, error) {
	if s.Status != payment.StatusVerified {
		return nil, false, domreceipt.ErrNotVerified
	}
	return repos.Receipts().Create(ctx, &domreceipt.Receipt{
		ID:            a.ids.NewID(),
		TransactionID: s.ID,
		Product: domreceipt.ProductSnapshot{
			ID:    snap.Product.ID,
			Title: snap.Product.Title,
			Price: payment.FormatAmount(snap.Product.Price),
		},
		Buyer: domreceipt.BuyerSnapshot{
			UserID: s.UserID,
			Name:   snap.Buyer.Name,
			Email:  snap.Buyer.Email,
		},
		Amount:    s.Amount,
		MethodID:  s.MethodID,
		Reference: s.Reference,
		IssuedAt:  a.clock().UTC(),
	})
}

// Get returns a stored receipt. A non-empty buyerID scopes the lookup to that
// buyer; another buyer's receipt reads as not found.
func (a *Assembler) Get(ctx context.Context, receiptID, buyerID string) (rc *domreceipt.Receipt, err error) {
	ctx, call := a.inst.Start(ctx, useCaseGet, "GetReceipt", observability.F("receipt_id", receiptID))
	defer func() { call.End(err) }()

	if strings.TrimSpace(receiptID) == "" {
		return nil, failure.Invalid("receipt id is required")
	}
	rc, err = a.store.Receipts().Get(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if buyerID != "" && rc.Buyer.UserID != buyerID {
		return nil, domreceipt.ErrNotFound
	}
	return rc, nil
}
