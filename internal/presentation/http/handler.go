package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	appreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 64 << 10
)

// Options are the collaborators of the HTTP surface. Metrics may be nil to
// leave /metrics unmounted; Limiter may be nil to disable throttling.
type Options struct {
	Payments *apppayment.Service
	Receipts *appreceipt.Assembler
	Issuer   *appdelivery.Issuer
	Auth     identity.Authenticator
	Limiter  *RateLimiter
	Logger   observability.Logger
	Tel      observability.Observability
	Metrics  http.Handler
}

type Handler struct {
	payments *apppayment.Service
	receipts *appreceipt.Assembler
	issuer   *appdelivery.Issuer
	auth     identity.Authenticator
	limiter  *RateLimiter
	log      observability.Logger
	tracer   trace.Tracer
	requests observability.Counter
	duration observability.Histogram
	metrics  http.Handler
}

func NewHandler(o Options) *Handler {
	baseLogger := o.Logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	metrics := observability.NopMetrics()
	if o.Tel != nil {
		metrics = o.Tel.Metrics()
	}
	return &Handler{
		payments: o.Payments,
		receipts: o.Receipts,
		issuer:   o.Issuer,
		auth:     o.Auth,
		limiter:  o.Limiter,
		log:      baseLogger.With(observability.F("component", componentHTTPHandler)),
		tracer:   otel.Tracer(tracerName),
		requests: metrics.Counter(observability.MHTTPRequests),
		duration: metrics.Histogram(observability.MHTTPRequestDuration),
		metrics:  o.Metrics,
	}
}

type access int

const (
	public access = iota
	buyer
	throttledBuyer
)

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	h.handle(r, http.MethodGet, "/health", public, h.handleHealth)
	h.handle(r, http.MethodGet, "/payment-methods", public, h.handleListMethods)
	h.handle(r, http.MethodPost, "/checkout/sessions", buyer, h.handleInitialize)
	h.handle(r, http.MethodGet, "/checkout/sessions/{id}", buyer, h.handleGetSession)
	h.handle(r, http.MethodPost, "/checkout/sessions/{id}/evidence", throttledBuyer, h.handleSubmitEvidence)
	h.handle(r, http.MethodPost, "/checkout/sessions/{id}/resume", buyer, h.handleResume)
	h.handle(r, http.MethodPost, "/checkout/sessions/{id}/delivery-token", buyer, h.handleReissueToken)
	h.handle(r, http.MethodGet, "/receipts/{id}", buyer, h.handleGetReceipt)
	h.handle(r, http.MethodGet, "/downloads/{token}", public, h.handleDownload)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
	return r
}

// handle wires: Trace → request logger → metrics → access log → identity → handler.
func (h *Handler) handle(r chi.Router, method, route string, a access, fn http.HandlerFunc) {
	var inner http.Handler = fn
	switch a {
	case throttledBuyer:
		inner = h.withIdentity(h.withRateLimit(inner))
	case buyer:
		inner = h.withIdentity(inner)
	}
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		})(
			h.withHTTPMetrics(
				h.withAccessLog(inner),
			),
		),
	)
	r.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

type methodView struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Kind             string `json:"kind"`
	RecipientName    string `json:"recipient_name"`
	RecipientAccount string `json:"recipient_account"`
}

func toMethodView(m payment.Method) methodView {
	return methodView{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		Kind:             string(m.Kind),
		RecipientName:    m.RecipientName,
		RecipientAccount: m.RecipientAccount,
	}
}

type sessionView struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	MethodID     string     `json:"method_id"`
	Amount       string     `json:"amount"`
	Status       string     `json:"status"`
	Reference    string     `json:"reference,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

func toSessionView(s *payment.Session) *sessionView {
	if s == nil {
		return nil
	}
	return &sessionView{
		ID:           s.ID,
		ProductID:    s.ProductID,
		MethodID:     s.MethodID,
		Amount:       payment.FormatAmount(s.Amount),
		Status:       string(s.Status),
		Reference:    s.Reference,
		RejectReason: s.RejectReason,
		CreatedAt:    s.CreatedAt,
		SubmittedAt:  s.SubmittedAt,
		VerifiedAt:   s.VerifiedAt,
	}
}

type tokenView struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	DownloadURL string    `json:"download_url"`
}

type decisionResponse struct {
	Session   *sessionView `json:"session"`
	ReceiptID string       `json:"receipt_id,omitempty"`
	Delivery  *tokenView   `json:"delivery,omitempty"`
}

func toDecisionResponse(d *apppayment.Decision) decisionResponse {
	resp := decisionResponse{Session: toSessionView(d.Session)}
	if d.Receipt != nil {
		resp.ReceiptID = d.Receipt.ID
	}
	if d.Token != nil {
		resp.Delivery = &tokenView{
			Token:       d.Token.Token,
			ExpiresAt:   d.Token.ExpiresAt,
			DownloadURL: "/downloads/" + d.Token.Token,
		}
	}
	return resp
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.payments.Methods.Execute(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, toMethodView(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": views})
}

type initializeRequest struct {
	ProductID string `json:"product_id"`
	MethodID  string `json:"method_id"`
}

type initializeResponse struct {
	Session *sessionView `json:"session"`
	PayTo   methodView   `json:"pay_to"`
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	res, err := h.payments.Initialize.Execute(r.Context(), apppayment.InitializeSessionInput{
		UserID:    userFromContext(r.Context()),
		ProductID: req.ProductID,
		MethodID:  req.MethodID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, initializeResponse{
		Session: toSessionView(res.Session),
		PayTo:   toMethodView(res.Method),
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	dec, err := h.payments.Get.Execute(r.Context(), h.sessionRef(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponse(dec))
}

type evidenceRequest struct {
	Reference    string      `json:"reference"`
	SenderName   string      `json:"sender_name,omitempty"`
	SenderAmount json.Number `json:"sender_amount,omitempty"`
}

func (h *Handler) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	ref := h.sessionRef(r)
	dec, err := h.payments.Submit.Execute(r.Context(), apppayment.SubmitEvidenceInput{
		UserID:    ref.UserID,
		SessionID: ref.SessionID,
		Evidence: payment.EvidenceInput{
			Reference:    req.Reference,
			SenderName:   req.SenderName,
			SenderAmount: req.SenderAmount.String(),
		},
	})
	h.writeDecision(w, r, dec, err)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	dec, err := h.payments.Resume.Execute(r.Context(), h.sessionRef(r))
	h.writeDecision(w, r, dec, err)
}

func (h *Handler) writeDecision(w http.ResponseWriter, r *http.Request, dec *apppayment.Decision, err error) {
	if err != nil {
		var session *sessionView
		if dec != nil {
			session = toSessionView(dec.Session)
		}
		h.writeDecisionError(w, r, err, session)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponse(dec))
}

func (h *Handler) handleReissueToken(w http.ResponseWriter, r *http.Request) {
	res, err := h.payments.Reissue.Execute(r.Context(), h.sessionRef(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponse(&apppayment.Decision{Session: res.Session, Token: res.Token}))
}

type receiptView struct {
	ID            string                     `json:"id"`
	TransactionID string                     `json:"transaction_id"`
	Product       domreceipt.ProductSnapshot `json:"product"`
	Buyer         domreceipt.BuyerSnapshot   `json:"buyer"`
	Amount        string                     `json:"amount"`
	MethodID      string                     `json:"method_id"`
	Reference     string                     `json:"reference"`
	IssuedAt      time.Time                  `json:"issued_at"`
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.receipts.Get(r.Context(), chi.URLParam(r, "id"), userFromContext(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptView{
		ID:            rc.ID,
		TransactionID: rc.TransactionID,
		Product:       rc.Product,
		Buyer:         rc.Buyer,
		Amount:        payment.FormatAmount(rc.Amount),
		MethodID:      rc.MethodID,
		Reference:     rc.Reference,
		IssuedAt:      rc.IssuedAt,
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	location, err := h.issuer.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if appdelivery.IsRedemptionError(err) {
			logctx.FromOr(r.Context(), h.log).Info("download_refused", observability.F("code", failure.CodeOf(err)))
		}
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}

func (h *Handler) sessionRef(r *http.Request) apppayment.SessionRef {
	return apppayment.SessionRef{
		UserID:    userFromContext(r.Context()),
		SessionID: chi.URLParam(r, "id"),
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return failure.Invalid("request body is required")
		}
		return failure.Invalid(fmt.Sprintf("malformed request body: %v", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
