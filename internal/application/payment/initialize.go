package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type InitializeSessionInput struct {
	UserID    string
	ProductID string
	MethodID  string
}

// InitializeSessionResult carries the new session and where the buyer must pay.
type InitializeSessionResult struct {
	Session *payment.Session
	Method  payment.Method
}

type InitializeSessionUseCase struct {
	deps Deps
	inst *application.Instrument
}

// Execute opens a checkout session. Ownership is checked first so an owner never
// gets a session, then the registry is read fresh, then the price is snapshotted.
func (uc *InitializeSessionUseCase) Execute(ctx context.Context, in InitializeSessionInput) (_ *InitializeSessionResult, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseInitialize, "InitializeSession",
		observability.F("user_id", in.UserID),
		observability.F("product_id", in.ProductID),
		observability.F("method_id", in.MethodID),
	)
	defer func() { call.End(err) }()

	userID, productID := strings.TrimSpace(in.UserID), strings.TrimSpace(in.ProductID)
	methodID := payment.NormalizeMethodID(in.MethodID)
	if userID == "" || productID == "" || methodID == "" {
		return nil, failure.Invalid("user, product and method are required")
	}

	owned, err := uc.deps.Ledger.Owns(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, payment.ErrAlreadyOwned
	}

	method, err := uc.deps.Methods.Get(ctx, methodID)
	if errors.Is(err, payment.ErrMethodNotFound) {
		return nil, payment.ErrMethodDisabled
	}
	if err != nil {
		return nil, err
	}
	if !method.Enabled {
		return nil, payment.ErrMethodDisabled
	}

	var product *catalog.Product
	err = application.WithTimeout(ctx, catalogTimeout, func(ctx context.Context) error {
		var err error
		product, err = uc.deps.Catalog.Product(ctx, productID)
		return err
	})
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, payment.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	s := payment.NewSession(uc.deps.IDs.NewID(), userID, productID, *method, product.Price, uc.deps.Clock())
	if err := uc.deps.Store.Sessions().Insert(ctx, s); err != nil {
		return nil, err
	}
	call.With(
		observability.F("session_id", s.ID),
		observability.F("amount", s.Amount.String()),
	)
	return &InitializeSessionResult{Session: s, Method: *method}, nil
}
