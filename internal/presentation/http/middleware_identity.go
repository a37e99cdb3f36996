package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const headerUserID = "X-User-ID"

type userKey struct{}

func userFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// credential prefers a bearer token and falls back to the gateway-set user header.
func credential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.Header.Get(headerUserID)
}

// withIdentity resolves the caller's user id or answers 401.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.auth.UserID(r.Context(), credential(r))
		if err != nil {
			logctx.FromOr(r.Context(), h.log).Debug("authentication_failed", observability.F("error", err.Error()))
			h.writeDomainError(w, r, identity.ErrUnauthenticated)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, userID)
		ctx = logctx.With(ctx, logctx.FromOr(ctx, h.log).With(observability.F("user_id", userID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
