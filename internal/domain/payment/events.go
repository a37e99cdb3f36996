package payment

import "time"

// SessionVerifiedEvent is emitted after the accept unit commits.
type SessionVerifiedEvent struct {
	SessionID  string
	UserID     string
	ProductID  string
	MethodID   string
	Amount     string
	ReceiptID  string
	Forced     bool
	Actor      string
	Note       string
	OccurredAt time.Time
}

func (SessionVerifiedEvent) EventName() string { return "payment.session_verified" }

func NewSessionVerifiedEvent(s *Session, receiptID string, now time.Time) SessionVerifiedEvent {
	return SessionVerifiedEvent{
		SessionID:  s.ID,
		UserID:     s.UserID,
		ProductID:  s.ProductID,
		MethodID:   s.MethodID,
		Amount:     s.Amount.String(),
		ReceiptID:  receiptID,
		OccurredAt: now.UTC(),
	}
}

// SessionRejectedEvent is emitted when a verification rule fails.
type SessionRejectedEvent struct {
	SessionID  string
	UserID     string
	ProductID  string
	MethodID   string
	Reason     string
	OccurredAt time.Time
}

func (SessionRejectedEvent) EventName() string { return "payment.session_rejected" }

func NewSessionRejectedEvent(s *Session, now time.Time) SessionRejectedEvent {
	return SessionRejectedEvent{
		SessionID:  s.ID,
		UserID:     s.UserID,
		ProductID:  s.ProductID,
		MethodID:   s.MethodID,
		Reason:     s.RejectReason,
		OccurredAt: now.UTC(),
	}
}

// TransactionDeletedEvent is emitted by the admin override after a deletion.
type TransactionDeletedEvent struct {
	SessionID  string
	UserID     string
	ProductID  string
	Actor      string
	OccurredAt time.Time
}

func (TransactionDeletedEvent) EventName() string { return "payment.transaction_deleted" }
