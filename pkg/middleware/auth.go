package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/httputil"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/logger"
)

type contextKeyType string

const identityKey contextKeyType = "identity"

// Identity is the caller described by a verified access token.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// TokenValidator verifies a bearer token and returns its identity.
type TokenValidator func(token string) (*Identity, error)

// Auth requires a valid "Authorization: Bearer <token>" header. Only a missing
// header is 401; any header that is present but does not carry a verifiable
// bearer token is 403.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "invalid authorization header")
				return
			}

			id, err := validate(token)
			if err != nil {
				writeAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), *id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stores id in ctx and tags request logs with its user id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return logger.WithUserID(ctx, id.UserID)
}

// IdentityFromContext returns the identity set by Auth, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: logger.RequestIDFromContext(r.Context()),
		},
	})
}
