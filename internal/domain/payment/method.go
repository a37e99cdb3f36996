package payment

import (
	"context"
	"strings"
)

// MethodKind selects the verification rule set applied to a method.
type MethodKind string

const (
	// KindPlain methods are verified by the transaction reference alone.
	KindPlain MethodKind = "plain"
	// KindChained methods relay through an intermediary wallet; the buyer must also
	// report the sender name and the exact amount sent.
	KindChained MethodKind = "chained"
)

func (k MethodKind) Valid() bool { return k == KindPlain || k == KindChained }

// Method is a merchant-configured manual payment method.
type Method struct {
	ID               string
	DisplayName      string
	Kind             MethodKind
	Enabled          bool
	RecipientName    string
	RecipientAccount string
}

// MethodRegistry is read by the checkout core; mutations belong to the admin surface.
type MethodRegistry interface {
	Get(ctx context.Context, id string) (*Method, error)
	ListEnabled(ctx context.Context) ([]Method, error)
}

// MethodAdmin is the privileged write side of the registry.
type MethodAdmin interface {
	MethodRegistry
	List(ctx context.Context) ([]Method, error)
	Upsert(ctx context.Context, m Method) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	SetRecipient(ctx context.Context, id, name, account string) error
}

// NormalizeMethodID trims and lowercases a buyer- or admin-supplied method id.
func NormalizeMethodID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
