package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/service"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/httputil"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/middleware"
)

type sessionKeyType struct{}

var sessionUserKey sessionKeyType

// SessionGuard lets a request through only when its refresh-token cookie is
// the live session of the user named by the {userId} path parameter. The
// verified user is stored in the request context.
func SessionGuard(authService *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := chi.URLParam(r, "userId")

			user, err := authService.VerifySession(r.Context(), userID, refreshTokenFromRequest(r))
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserKey, user)
			ctx = middleware.WithIdentity(ctx, middleware.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionUserFromContext returns the user verified by SessionGuard.
func sessionUserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(sessionUserKey).(*domain.User)
	return user, ok && user != nil
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), logger)
}
