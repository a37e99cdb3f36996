package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rule is one verification check over a pending session.
type Rule interface {
	Name() string
	Check(s *Session) error
}

type ruleFunc struct {
	name  string
	check func(*Session) error
}

func (r ruleFunc) Name() string           { return r.name }
func (r ruleFunc) Check(s *Session) error { return r.check(s) }

var (
	referencePresent = ruleFunc{"reference_present", func(s *Session) error {
		if strings.TrimSpace(s.Reference) == "" {
			return ErrReferenceRequired
		}
		return nil
	}}
	senderNamePresent = ruleFunc{"sender_name_present", func(s *Session) error {
		if strings.TrimSpace(s.SenderName) == "" {
			return ErrSenderNameRequired
		}
		return nil
	}}
	// Exact decimal comparison: 19.99 never matches 20.00, and 20 matches 20.00.
	senderAmountMatches = ruleFunc{"sender_amount_matches", func(s *Session) error {
		if !s.SenderAmount.Valid || !s.SenderAmount.Decimal.Equal(s.Amount) {
			return ErrAmountMismatch
		}
		return nil
	}}
)

var ruleSets = map[MethodKind][]Rule{
	KindPlain:   {referencePresent},
	KindChained: {referencePresent, senderNamePresent, senderAmountMatches},
}

// RulesFor returns the ordered rule set of a method kind.
func RulesFor(kind MethodKind) []Rule {
	return ruleSets[kind]
}

// Evaluate runs every rule for the session's kind and returns the first failure.
func Evaluate(s *Session) error {
	rules := RulesFor(s.MethodKind)
	if len(rules) == 0 {
		return ErrInvalidEvidence
	}
	for _, r := range rules {
		if err := r.Check(s); err != nil {
			return err
		}
	}
	return nil
}

// FormatAmount renders d with at least two decimals and never rounds, so the
// shown figure is exactly what the amount rule compares against.
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if exp := -d.Exponent(); exp > places {
		places = exp
	}
	return d.StringFixed(places)
}
