package delivery

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
)

var (
	ErrTokenUnknown = failure.New("TOKEN_UNKNOWN", "delivery: token not recognised")
	ErrTokenExpired = failure.New("TOKEN_EXPIRED", "delivery: token expired")
	ErrTokenUsed    = failure.New("TOKEN_USED", "delivery: token already used")
)

// Token is a single-use, expiring stand-in for a private asset location.
// AssetLocation never leaves the server except through Resolve.
type Token struct {
	Token         string
	TransactionID string
	AssetLocation string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	UsedAt        *time.Time
}

// Usable reports whether the token can still be resolved at now.
func (t *Token) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// Check classifies why a token cannot be resolved at now, or returns nil.
func (t *Token) Check(now time.Time) error {
	switch {
	case t.UsedAt != nil:
		return ErrTokenUsed
	case !now.Before(t.ExpiresAt):
		return ErrTokenExpired
	default:
		return nil
	}
}

type Repository interface {
	Insert(ctx context.Context, t *Token) error
	Get(ctx context.Context, token string) (*Token, error)
	// LatestUsable returns the newest unused, unexpired token of a transaction, or nil.
	LatestUsable(ctx context.Context, transactionID string, now time.Time) (*Token, error)
	// MarkUsed sets UsedAt only while it is still unset; ok is false when another
	// caller got there first. Expiry is the caller's check.
	MarkUsed(ctx context.Context, token string, now time.Time) (ok bool, err error)
	DeleteByTransaction(ctx context.Context, transactionID string) error
}
