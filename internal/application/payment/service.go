package payment

import (
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	paymentService    = "payment-service"
	catalogTimeout    = 3 * time.Second
	useCaseInitialize = "payment.initialize"
	useCaseSubmit     = "payment.submit_evidence"
	useCaseResume     = "payment.resume_verification"
	useCaseGet        = "payment.get_session"
	useCaseMethods    = "payment.list_methods"
	useCaseReissue    = "payment.reissue_token"
	useCaseForce      = "payment.force_verify"
	useCaseDelete     = "payment.delete_transaction"
)

// Deps are the collaborators of the checkout core.
type Deps struct {
	Store     ports.Store
	Methods   payment.MethodRegistry
	Catalog   catalog.Catalog
	Ledger    *fulfillment.Ledger
	Receipts  *receipt.Assembler
	Issuer    *delivery.Issuer
	Publisher domoutbox.Publisher
	IDs       ports.IDGenerator
	Clock     ports.Clock
	Tel       observability.Observability
}

// Service bundles the buyer-facing use cases and the admin overrides.
type Service struct {
	Initialize *InitializeSessionUseCase
	Submit     *SubmitEvidenceUseCase
	Resume     *ResumeVerificationUseCase
	Get        *GetSessionUseCase
	Methods    *ListEnabledMethodsUseCase
	Reissue    *ReissueDeliveryTokenUseCase
	Overrides  *Overrides
	Engine     *Engine
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	inst := application.NewInstrument(d.Tel, paymentService)
	engine := NewEngine(d.Store, d.Ledger, d.Receipts, d.Issuer, d.Publisher, d.Clock, d.Tel)
	return &Service{
		Initialize: &InitializeSessionUseCase{deps: d, inst: inst},
		Submit:     &SubmitEvidenceUseCase{store: d.Store, engine: engine, clock: d.Clock, inst: inst},
		Resume:     &ResumeVerificationUseCase{store: d.Store, engine: engine, inst: inst},
		Get:        &GetSessionUseCase{store: d.Store, inst: inst},
		Methods:    &ListEnabledMethodsUseCase{methods: d.Methods, inst: inst},
		Reissue:    &ReissueDeliveryTokenUseCase{deps: d, inst: inst},
		Overrides:  &Overrides{store: d.Store, engine: engine, clock: d.Clock, inst: inst},
		Engine:     engine,
	}
}

var (
	_ application.UseCase[InitializeSessionInput, *InitializeSessionResult] = (*InitializeSessionUseCase)(nil)
	_ application.UseCase[SubmitEvidenceInput, *Decision]                   = (*SubmitEvidenceUseCase)(nil)
	_ application.UseCase[SessionRef, *Decision]                            = (*ResumeVerificationUseCase)(nil)
	_ application.UseCase[SessionRef, *Decision]                            = (*GetSessionUseCase)(nil)
	_ application.UseCase[ReissueInput, *ReissueResult]                     = (*ReissueDeliveryTokenUseCase)(nil)
)
