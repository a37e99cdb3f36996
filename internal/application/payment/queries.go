package payment

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domfulfillment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// SessionRef names a session on behalf of the buyer who owns it.
type SessionRef struct {
	UserID    string
	SessionID string
}

type ResumeVerificationUseCase struct {
	store  ports.Store
	engine *Engine
	inst   *application.Instrument
}

// Execute re-drives a session stuck in pending verification, or replays the
// stored outcome of a decided one without repeating side effects.
func (uc *ResumeVerificationUseCase) Execute(ctx context.Context, ref SessionRef) (_ *Decision, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseResume, "ResumeVerification",
		observability.F("user_id", ref.UserID),
		observability.F("session_id", ref.SessionID),
	)
	defer func() { call.End(err) }()

	s, err := loadOwned(ctx, uc.store, ref.UserID, ref.SessionID)
	if err != nil {
		return nil, err
	}
	return uc.engine.Decide(ctx, s)
}

type GetSessionUseCase struct {
	store ports.Store
	inst  *application.Instrument
}

// Execute returns the session and, once verified, its receipt. The delivery
// token is never echoed here.
func (uc *GetSessionUseCase) Execute(ctx context.Context, ref SessionRef) (_ *Decision, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseGet, "GetSession",
		observability.F("user_id", ref.UserID),
		observability.F("session_id", ref.SessionID),
	)
	defer func() { call.End(err) }()

	s, err := loadOwned(ctx, uc.store, ref.UserID, ref.SessionID)
	if err != nil {
		return nil, err
	}
	dec := &Decision{Session: s}
	if s.Status == payment.StatusVerified {
		rc, err := uc.store.Receipts().GetByTransaction(ctx, s.ID)
		if err != nil && !errors.Is(err, domreceipt.ErrNotFound) {
			return nil, err
		}
		dec.Receipt = rc
	}
	return dec, nil
}

type ListEnabledMethodsUseCase struct {
	methods payment.MethodRegistry
	inst    *application.Instrument
}

func (uc *ListEnabledMethodsUseCase) Execute(ctx context.Context) (_ []payment.Method, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseMethods, "ListEnabledMethods")
	defer func() { call.End(err) }()

	methods, err := uc.methods.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	call.With(observability.F("count", len(methods)))
	return methods, nil
}

type ReissueInput = SessionRef

type ReissueResult struct {
	Session *payment.Session
	Token   *domdelivery.Token
}

type ReissueDeliveryTokenUseCase struct {
	deps Deps
	inst *application.Instrument
}

// Execute hands an owner a usable token for a verified purchase, minting a new
// one when the previous tokens were used or expired.
func (uc *ReissueDeliveryTokenUseCase) Execute(ctx context.Context, in ReissueInput) (_ *ReissueResult, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseReissue, "ReissueDeliveryToken",
		observability.F("user_id", in.UserID),
		observability.F("session_id", in.SessionID),
	)
	defer func() { call.End(err) }()

	s, err := loadOwned(ctx, uc.deps.Store, in.UserID, in.SessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != payment.StatusVerified {
		return nil, domreceipt.ErrNotVerified
	}
	rec, err := uc.deps.Ledger.Record(ctx, s.UserID, s.ProductID)
	if errors.Is(err, domfulfillment.ErrNotFound) {
		return nil, domfulfillment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.TransactionID != s.ID {
		return nil, domfulfillment.ErrNotFound
	}

	snap, err := uc.deps.Receipts.Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	tok, err := uc.deps.Issuer.Mint(ctx, s.ID, snap.Product.AssetLocation)
	if err != nil {
		return nil, err
	}
	return &ReissueResult{Session: s, Token: tok}, nil
}
