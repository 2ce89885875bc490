package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "waitlist/internal/delivery/http/helpers"
	"waitlist/internal/domain"
)

type contextKey string

const operatorKey contextKey = "operator"

// SetOperator returns a context carrying the authenticated operator subject.
func SetOperator(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, operatorKey, subject)
}

// OperatorFromContext returns the operator subject set by RequireAuth, if present.
func OperatorFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(operatorKey).(string)
	return sub, ok && sub != ""
}

// RequireAuth returns a wrapper that validates the Bearer token and stores the operator in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing or malformed bearer token")
				return
			}
			subject, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetOperator(r.Context(), subject)))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
