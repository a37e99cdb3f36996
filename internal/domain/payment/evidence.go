package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Evidence is what a buyer reports after paying out of band. The set of
// implementations is closed: ReferenceEvidence and ChainedEvidence.
type Evidence interface {
	Kind() MethodKind
	TransactionReference() string
	isEvidence()
}

// ReferenceEvidence carries only the bank/wallet transaction reference.
type ReferenceEvidence struct {
	Reference string
}

func (ReferenceEvidence) Kind() MethodKind               { return KindPlain }
func (e ReferenceEvidence) TransactionReference() string { return e.Reference }
func (ReferenceEvidence) isEvidence()                    {}

// ChainedEvidence adds the sender identity and amount of the relayed transfer.
// SenderAmount is buyer-supplied evidence; it never overrides the session amount.
type ChainedEvidence struct {
	Reference    string
	SenderName   string
	SenderAmount decimal.NullDecimal
}

func (ChainedEvidence) Kind() MethodKind               { return KindChained }
func (e ChainedEvidence) TransactionReference() string { return e.Reference }
func (ChainedEvidence) isEvidence()                    {}

// EvidenceInput is the loosely-typed boundary shape decoded from requests.
type EvidenceInput struct {
	Reference    string
	SenderName   string
	SenderAmount string
}

// ParseEvidence turns boundary input into the variant required by kind.
// It checks shape only; business rules run in the verification engine.
func ParseEvidence(kind MethodKind, in EvidenceInput) (Evidence, error) {
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		return nil, ErrReferenceRequired
	}
	switch kind {
	case KindPlain:
		if strings.TrimSpace(in.SenderName) != "" || strings.TrimSpace(in.SenderAmount) != "" {
			return nil, ErrInvalidEvidence
		}
		return ReferenceEvidence{Reference: ref}, nil
	case KindChained:
		ev := ChainedEvidence{Reference: ref, SenderName: strings.TrimSpace(in.SenderName)}
		if raw := strings.TrimSpace(in.SenderAmount); raw != "" {
			amt, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, ErrInvalidEvidence
			}
			ev.SenderAmount = decimal.NullDecimal{Decimal: amt, Valid: true}
		}
		return ev, nil
	default:
		return nil, ErrInvalidEvidence
	}
}
