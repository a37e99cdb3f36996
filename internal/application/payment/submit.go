package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type SubmitEvidenceInput struct {
	UserID    string
	SessionID string
	Evidence  payment.EvidenceInput
}

type SubmitEvidenceUseCase struct {
	store  ports.Store
	engine *Engine
	clock  ports.Clock
	inst   *application.Instrument
}

// Execute records the buyer's evidence and decides the session synchronously.
// A rejected session is returned together with the reason as error.
func (uc *SubmitEvidenceUseCase) Execute(ctx context.Context, in SubmitEvidenceInput) (_ *Decision, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseSubmit, "SubmitEvidence",
		observability.F("user_id", in.UserID),
		observability.F("session_id", in.SessionID),
	)
	defer func() { call.End(err) }()

	s, err := loadOwned(ctx, uc.store, in.UserID, in.SessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != payment.StatusInitialized {
		return nil, payment.ErrAlreadySubmitted
	}
	ev, err := payment.ParseEvidence(s.MethodKind, in.Evidence)
	if err != nil {
		return nil, err
	}

	pending := s.Clone()
	if err := pending.Submit(ev, uc.clock()); err != nil {
		return nil, err
	}
	// The reference is reserved together with the status change so a pending
	// session blocks reuse. A reference held by another session still commits
	// the evidence; the engine then rejects it.
	err = uc.store.InTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if err := tx.Sessions().Save(ctx, pending, payment.StatusInitialized); err != nil {
			return err
		}
		err := tx.References().Claim(ctx, pending.MethodID, pending.Reference, pending.ID)
		if errors.Is(err, payment.ErrReferenceReused) {
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, payment.ErrStaleSession) {
			return nil, payment.ErrAlreadySubmitted
		}
		return nil, err
	}

	dec, err := uc.engine.Decide(ctx, pending)
	if dec != nil && dec.Session != nil {
		call.With(observability.F("session_status", string(dec.Session.Status)))
	}
	return dec, err
}

// loadOwned reads a session on behalf of a buyer; other buyers' sessions read as
// not found.
func loadOwned(ctx context.Context, store ports.Store, userID, sessionID string) (*payment.Session, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, failure.Invalid("user and session are required")
	}
	s, err := store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}
