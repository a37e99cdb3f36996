package payment

import "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"

var (
	ErrAlreadyOwned       = failure.New("ALREADY_OWNED", "payment: product already owned")
	ErrMethodDisabled     = failure.New("METHOD_DISABLED", "payment: payment method is not enabled")
	ErrProductNotFound    = failure.New("PRODUCT_NOT_FOUND", "payment: product not found")
	ErrAlreadySubmitted   = failure.New("ALREADY_SUBMITTED", "payment: evidence already submitted for this session")
	ErrReferenceRequired  = failure.New("REFERENCE_REQUIRED", "payment: transaction reference is required")
	ErrReferenceReused    = failure.New("REFERENCE_REUSED", "payment: transaction reference has already been used")
	ErrSenderNameRequired = failure.New("SENDER_NAME_REQUIRED", "payment: sender name is required")
	ErrAmountMismatch     = failure.New("AMOUNT_MISMATCH", "payment: sender amount does not match the session amount")
	ErrInvalidEvidence    = failure.New("INVALID_EVIDENCE", "payment: evidence does not match the payment method")
	ErrSessionNotFound    = failure.New("NOT_FOUND", "payment: session not found")
	ErrMethodNotFound     = failure.New("NOT_FOUND", "payment: payment method not found")

	// ErrStaleSession reports that a conditional status update matched no row:
	// another request moved the session first.
	ErrStaleSession = failure.New("STALE_SESSION", "payment: session changed concurrently")
	// ErrInvalidTransition is returned when a status change is not allowed by the chart.
	ErrInvalidTransition = failure.New("INVALID_TRANSITION", "payment: invalid session status transition")
)

var rejections = map[string]error{}

func init() {
	for _, err := range []*failure.Error{
		ErrReferenceRequired, ErrReferenceReused, ErrSenderNameRequired,
		ErrAmountMismatch, ErrAlreadyOwned, ErrInvalidEvidence, ErrProductNotFound,
	} {
		rejections[err.Code] = err
	}
}

// RejectionError maps a stored reject reason back to its error so replays of a
// rejected session surface the original failure.
func RejectionError(reason string) error {
	if err, ok := rejections[reason]; ok {
		return err
	}
	return failure.New(reason, "payment: session rejected")
}
