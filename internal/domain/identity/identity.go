package identity

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
)

// Buyer is the profile data copied into receipts.
type Buyer struct {
	UserID string
	Name   string
	Email  string
}

// Directory resolves profile data for an already-authenticated user id.
// Unknown users resolve to a Buyer carrying only the id.
type Directory interface {
	Buyer(ctx context.Context, userID string) (Buyer, error)
}

// ErrUnauthenticated means no verifiable user id accompanied the request.
var ErrUnauthenticated = failure.New("UNAUTHENTICATED", "identity: authentication required")

// Authenticator turns a presented credential into a user id.
type Authenticator interface {
	UserID(ctx context.Context, credential string) (string, error)
}
