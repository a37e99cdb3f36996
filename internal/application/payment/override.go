package payment

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// Overrides are the privileged operations the admin collaborator calls. Both
// are audited through the outbox.
type Overrides struct {
	store  ports.Store
	engine *Engine
	clock  ports.Clock
	inst   *application.Instrument
}

type ForceVerifyInput struct {
	SessionID string
	Actor     string
	Note      string
}

// ForceVerify accepts a pending session without evaluating the evidence rules.
// The reference claim and the single-owner constraint still apply; a conflict
// leaves the session pending.
func (o *Overrides) ForceVerify(ctx context.Context, in ForceVerifyInput) (_ *Decision, err error) {
	ctx, call := o.inst.Start(ctx, useCaseForce, "ForceVerify",
		observability.F("session_id", in.SessionID),
		observability.F("actor", in.Actor),
	)
	defer func() { call.End(err) }()

	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.Actor) == "" {
		return nil, failure.Invalid("session and actor are required")
	}
	s, err := o.store.Sessions().Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	switch s.Status {
	case payment.StatusVerified:
		return o.engine.replay(ctx, s)
	case payment.StatusPendingVerification:
		return o.engine.accept(ctx, s, override{actor: in.Actor, note: in.Note})
	default:
		return nil, payment.ErrInvalidTransition
	}
}

// DeleteTransaction removes a session with its claim, entitlement, receipt and
// tokens in one transaction.
func (o *Overrides) DeleteTransaction(ctx context.Context, sessionID, actor string) (err error) {
	ctx, call := o.inst.Start(ctx, useCaseDelete, "DeleteTransaction",
		observability.F("session_id", sessionID),
		observability.F("actor", actor),
	)
	defer func() { call.End(err) }()

	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(actor) == "" {
		return failure.Invalid("session and actor are required")
	}
	var deleted *payment.Session
	err = o.store.InTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		s, err := tx.Sessions().Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := tx.Tokens().DeleteByTransaction(ctx, s.ID); err != nil {
			return err
		}
		if err := tx.Receipts().DeleteByTransaction(ctx, s.ID); err != nil {
			return err
		}
		if err := tx.Entitlements().DeleteByTransaction(ctx, s.ID); err != nil {
			return err
		}
		if err := tx.References().Release(ctx, s.ID); err != nil {
			return err
		}
		if err := tx.Sessions().Delete(ctx, s.ID); err != nil {
			return err
		}
		deleted = s
		return nil
	})
	if err != nil {
		return err
	}

	o.engine.publish(ctx, payment.TransactionDeletedEvent{
		SessionID:  deleted.ID,
		UserID:     deleted.UserID,
		ProductID:  deleted.ProductID,
		Actor:      actor,
		OccurredAt: o.clock().UTC(),
	})
	return nil
}
