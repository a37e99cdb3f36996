package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

type errorBody struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Session *sessionView `json:"session,omitempty"`
}

var statusByCode = map[string]int{
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_EVIDENCE":     http.StatusBadRequest,
	"REFERENCE_REQUIRED":   http.StatusBadRequest,
	"UNAUTHENTICATED":      http.StatusUnauthorized,
	"NOT_FOUND":            http.StatusNotFound,
	"PRODUCT_NOT_FOUND":    http.StatusNotFound,
	"TOKEN_UNKNOWN":        http.StatusNotFound,
	"ALREADY_OWNED":        http.StatusConflict,
	"ALREADY_SUBMITTED":    http.StatusConflict,
	"REFERENCE_REUSED":     http.StatusConflict,
	"INVALID_TRANSITION":   http.StatusConflict,
	"NOT_VERIFIED":         http.StatusConflict,
	"TOKEN_EXPIRED":        http.StatusGone,
	"TOKEN_USED":           http.StatusGone,
	"METHOD_DISABLED":      http.StatusUnprocessableEntity,
	"SENDER_NAME_REQUIRED": http.StatusUnprocessableEntity,
	"AMOUNT_MISMATCH":      http.StatusUnprocessableEntity,
	"TRANSIENT":            http.StatusServiceUnavailable,
	"STALE_SESSION":        http.StatusServiceUnavailable,
}

func statusFor(err error) (int, string) {
	code := failure.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, code
}

// writeDomainError answers with the stable code. Internal errors keep their
// detail in the log only.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeDecisionError(w, r, err, nil)
}

func (h *Handler) writeDecisionError(w http.ResponseWriter, r *http.Request, err error, session *sessionView) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_request_failed",
			observability.F("code", code),
			observability.F("error", msg),
		)
		msg = http.StatusText(status)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code, Session: session})
}
