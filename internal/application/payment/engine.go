package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/receipt"
	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const publishTimeout = 300 * time.Millisecond

// Decision is the outcome of verifying one session. Receipt and Token are set
// only for verified sessions; Token is nil when every token was used or expired.
type Decision struct {
	Session *payment.Session
	Receipt *domreceipt.Receipt
	Token   *domdelivery.Token
}

func (d *Decision) Verified() bool {
	return d != nil && d.Session != nil && d.Session.Status == payment.StatusVerified
}

// Engine decides pending sessions. Accepting runs the claim, grant, receipt and
// token steps plus the status change in one transaction; each step tolerates a
// replay of the same session.
type Engine struct {
	store     ports.Store
	ledger    *fulfillment.Ledger
	receipts  *receipt.Assembler
	issuer    *delivery.Issuer
	publisher domoutbox.Publisher
	clock     ports.Clock
	log       observability.Logger
	decisions observability.Counter
}

func NewEngine(
	store ports.Store,
	ledger *fulfillment.Ledger,
	receipts *receipt.Assembler,
	issuer *delivery.Issuer,
	publisher domoutbox.Publisher,
	clock ports.Clock,
	tel observability.Observability,
) *Engine {
	if clock == nil {
		clock = time.Now
	}
	log := observability.NopLogger()
	metrics := observability.NopMetrics()
	if tel != nil {
		log = tel.Logger()
		metrics = tel.Metrics()
	}
	return &Engine{
		store:     store,
		ledger:    ledger,
		receipts:  receipts,
		issuer:    issuer,
		publisher: publisher,
		clock:     clock,
		log:       log.With(observability.F("component", "verification_engine")),
		decisions: metrics.Counter(observability.MPaymentDecisions),
	}
}

// Decide verifies a pending session or replays the stored outcome of a decided
// one. A rejection returns the decision together with the failed rule's error.
func (e *Engine) Decide(ctx context.Context, s *payment.Session) (*Decision, error) {
	switch s.Status {
	case payment.StatusVerified, payment.StatusRejected:
		return e.replay(ctx, s)
	case payment.StatusPendingVerification:
	default:
		return nil, payment.ErrInvalidTransition
	}

	// Reuse is reported ahead of every evidence rule.
	if err := e.store.References().Claim(ctx, s.MethodID, s.Reference, s.ID); err != nil {
		if errors.Is(err, payment.ErrReferenceReused) {
			return e.reject(ctx, s, err)
		}
		return nil, err
	}
	if err := payment.Evaluate(s); err != nil {
		return e.reject(ctx, s, err)
	}
	dec, err := e.accept(ctx, s, override{})
	switch {
	case errors.Is(err, payment.ErrReferenceReused),
		errors.Is(err, payment.ErrAlreadyOwned),
		errors.Is(err, payment.ErrProductNotFound):
		return e.reject(ctx, s, err)
	}
	return dec, err
}

// override marks an accept forced by an administrator.
type override struct {
	actor string
	note  string
}

func (o override) forced() bool { return o.actor != "" }

func (e *Engine) accept(ctx context.Context, s *payment.Session, by override) (*Decision, error) {
	snap, err := e.receipts.Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}

	var dec Decision
	err = e.store.InTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if err := tx.References().Claim(ctx, s.MethodID, s.Reference, s.ID); err != nil {
			return err
		}
		rec, _, err := e.ledger.GrantTx(ctx, tx, s.UserID, s.ProductID, s.ID)
		if err != nil {
			return err
		}
		if rec.TransactionID != s.ID {
			return payment.ErrAlreadyOwned
		}

		verified := s.Clone()
		if err := verified.Verify(e.clock()); err != nil {
			return err
		}
		if err := tx.Sessions().Save(ctx, verified, payment.StatusPendingVerification); err != nil {
			return err
		}
		rc, _, err := e.receipts.CreateTx(ctx, tx, verified, snap)
		if err != nil {
			return err
		}
		tok, err := e.issuer.MintTx(ctx, tx, s.ID, snap.Product.AssetLocation, false)
		if err != nil {
			return err
		}
		dec = Decision{Session: verified, Receipt: rc, Token: tok}
		return nil
	})
	if errors.Is(err, payment.ErrStaleSession) {
		return e.reload(ctx, s.ID)
	}
	if err != nil {
		return nil, err
	}

	reason := "none"
	if by.forced() {
		reason = "forced"
	}
	e.record(ctx, dec.Session, "verified", reason)

	evt := payment.NewSessionVerifiedEvent(dec.Session, dec.Receipt.ID, e.clock())
	evt.Forced, evt.Actor, evt.Note = by.forced(), by.actor, by.note
	e.publish(ctx, evt)
	return &dec, nil
}

func (e *Engine) reject(ctx context.Context, s *payment.Session, cause error) (*Decision, error) {
	rejected := s.Clone()
	if err := rejected.Reject(failure.CodeOf(cause), e.clock()); err != nil {
		return nil, err
	}
	err := e.store.InTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if err := tx.Sessions().Save(ctx, rejected, payment.StatusPendingVerification); err != nil {
			return err
		}
		return tx.References().Release(ctx, s.ID)
	})
	if errors.Is(err, payment.ErrStaleSession) {
		return e.reload(ctx, s.ID)
	}
	if err != nil {
		return nil, err
	}

	e.record(ctx, rejected, "rejected", rejected.RejectReason)
	e.publish(ctx, payment.NewSessionRejectedEvent(rejected, e.clock()))
	return &Decision{Session: rejected}, cause
}

// reload replays whatever a concurrent decider stored.
func (e *Engine) reload(ctx context.Context, sessionID string) (*Decision, error) {
	s, err := e.store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.Status.Terminal() {
		return nil, failure.Transient(payment.ErrStaleSession)
	}
	return e.replay(ctx, s)
}

func (e *Engine) replay(ctx context.Context, s *payment.Session) (*Decision, error) {
	if s.Status == payment.StatusRejected {
		return &Decision{Session: s}, payment.RejectionError(s.RejectReason)
	}
	rc, err := e.store.Receipts().GetByTransaction(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	tok, err := e.store.Tokens().LatestUsable(ctx, s.ID, e.clock().UTC())
	if err != nil {
		return nil, err
	}
	return &Decision{Session: s, Receipt: rc, Token: tok}, nil
}

func (e *Engine) record(ctx context.Context, s *payment.Session, outcome, reason string) {
	e.decisions.Add(1,
		observability.L("method", s.MethodID),
		observability.L("outcome", outcome),
		observability.L("reason", reason),
	)
	logctx.FromOr(ctx, e.log).Info("payment_decided",
		observability.F("session_id", s.ID),
		observability.F("method_id", s.MethodID),
		observability.F("outcome", outcome),
		observability.F("reason", reason),
	)
}

// publish never fails the caller: the decision is already committed.
func (e *Engine) publish(ctx context.Context, evt domoutbox.Event) {
	if e.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, evt); err != nil {
		logctx.FromOr(ctx, e.log).Warn("event_publish_failed",
			observability.F("event", evt.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
