package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"caseflow/pkg/requestcontext"
)

// SessionCookieName is the cookie carrying "<sessionID>.<token>".
const SessionCookieName = "sid"

// Identity is what a resolved session tells us about the caller.
type Identity struct {
	UserID    string
	SessionID string
	UserName  string
	// BackendCookie is the upstream session cookie captured at login,
	// forwarded by backend clients on outbound calls.
	BackendCookie string
}

// SessionResolver validates a raw session cookie value.
type SessionResolver interface {
	Resolve(ctx context.Context, cookieValue string) (Identity, error)
}

// RequireSession rejects requests without a valid session cookie and injects
// the caller's identity into the request context.
func RequireSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			identity, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				logger.WarnContext(r.Context(), "session rejected",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w)
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), identity.UserID)
			ctx = requestcontext.WithSessionID(ctx, identity.SessionID)
			ctx = requestcontext.WithUserName(ctx, identity.UserName)
			ctx = requestcontext.WithBackendAuth(ctx, identity.BackendCookie)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"message":"authentication required"}}`))
}
