package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"gorm.io/gorm"
)

const defaultTimeout = 3 * time.Second

var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on top of gorm.
type Store struct {
	conn
}

// conn binds repositories to either the pool or an open transaction.
type conn struct {
	db      *gorm.DB
	timeout time.Duration
	inTx    bool
}

// NewStore wraps db; timeout bounds every statement issued outside a transaction
// and every transaction as a whole.
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{conn: conn{db: db, timeout: timeout}}
}

func (c conn) run(ctx context.Context, fn func(db *gorm.DB) error) error {
	if !c.inTx {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return classify(fn(c.db.WithContext(ctx)))
}

// classify keeps domain errors and record-not-found intact and marks the rest retryable.
func classify(err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	return failure.Transient(err)
}

func (c conn) Sessions() payment.Repository          { return sessionRepo{c} }
func (c conn) References() payment.ReferenceRegistry { return referenceRepo{c} }
func (c conn) Entitlements() fulfillment.Repository  { return entitlementRepo{c} }
func (c conn) Receipts() receipt.Repository          { return receiptRepo{c} }
func (c conn) Tokens() delivery.Repository           { return tokenRepo{c} }

// Methods returns the payment method registry, including its admin surface.
func (s *Store) Methods() payment.MethodAdmin { return methodRepo{s.conn} }

// Audit returns the append-only audit log.
func (s *Store) Audit() *AuditLog { return &AuditLog{s.conn} }

// InTx runs fn inside one database transaction bounded by the store timeout.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, conn{db: tx, timeout: s.timeout, inTx: true})
	})
	return classify(err)
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *gorm.DB { return s.db }
