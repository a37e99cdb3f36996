package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitialized         Status = "initialized"
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusRejected            Status = "rejected"
)

func (s Status) Terminal() bool { return s == StatusVerified || s == StatusRejected }

// transitionChart lists the buyer-facing moves. Terminal states have no exits.
var transitionChart = map[Status][]Status{
	StatusInitialized:         {StatusPendingVerification},
	StatusPendingVerification: {StatusVerified, StatusRejected},
}

func allowed(from, to Status) bool {
	for _, s := range transitionChart[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is one buyer's attempt to pay for one product (the Transaction record).
type Session struct {
	ID           string
	UserID       string
	ProductID    string
	MethodID     string
	MethodKind   MethodKind
	Amount       decimal.Decimal
	Reference    string
	SenderName   string
	SenderAmount decimal.NullDecimal
	Status       Status
	RejectReason string
	CreatedAt    time.Time
	SubmittedAt  *time.Time
	VerifiedAt   *time.Time
	DecidedAt    *time.Time
}

// NewSession snapshots the catalog price; Amount never changes afterwards.
func NewSession(id, userID, productID string, method Method, price decimal.Decimal, now time.Time) *Session {
	return &Session{
		ID:         id,
		UserID:     userID,
		ProductID:  productID,
		MethodID:   method.ID,
		MethodKind: method.Kind,
		Amount:     price,
		Status:     StatusInitialized,
		CreatedAt:  now.UTC(),
	}
}

// Submit records buyer evidence and moves the session to pending verification.
func (s *Session) Submit(ev Evidence, now time.Time) error {
	if s.Status != StatusInitialized {
		return ErrAlreadySubmitted
	}
	if ev.Kind() != s.MethodKind {
		return ErrInvalidEvidence
	}
	s.Reference = ev.TransactionReference()
	if c, ok := ev.(ChainedEvidence); ok {
		s.SenderName = c.SenderName
		s.SenderAmount = c.SenderAmount
	}
	t := now.UTC()
	s.SubmittedAt = &t
	s.Status = StatusPendingVerification
	return nil
}

func (s *Session) Verify(now time.Time) error {
	if !allowed(s.Status, StatusVerified) {
		return ErrInvalidTransition
	}
	t := now.UTC()
	s.Status = StatusVerified
	s.VerifiedAt = &t
	s.DecidedAt = &t
	s.RejectReason = ""
	return nil
}

func (s *Session) Reject(reason string, now time.Time) error {
	if !allowed(s.Status, StatusRejected) {
		return ErrInvalidTransition
	}
	t := now.UTC()
	s.Status = StatusRejected
	s.RejectReason = reason
	s.DecidedAt = &t
	return nil
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	if s.VerifiedAt != nil {
		t := *s.VerifiedAt
		c.VerifiedAt = &t
	}
	if s.DecidedAt != nil {
		t := *s.DecidedAt
		c.DecidedAt = &t
	}
	return &c
}

// Repository persists sessions. Save applies the status change only when the stored
// status still equals from, returning ErrStaleSession otherwise.
type Repository interface {
	Insert(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, from Status) error
	Delete(ctx context.Context, id string) error
}

// ReferenceRegistry enforces single use of a transaction reference per method.
// Claim must be backed by a storage uniqueness constraint; claiming a reference
// already held by the same session succeeds.
type ReferenceRegistry interface {
	Claim(ctx context.Context, methodID, reference, sessionID string) error
	Release(ctx context.Context, sessionID string) error
}
