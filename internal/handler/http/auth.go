package http

import (
	"log/slog"
	"net/http"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/service"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/httputil"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/middleware"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookie  refreshCookie
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. secureCookie sets the
// Secure attribute on the refresh-token cookie.
func NewAuthHandler(svc *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		cookie:  refreshCookie{secure: secureCookie, maxAge: svc.RefreshTokenTTL()},
		logger:  logger,
	}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// --- Handlers ---

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	_, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusCreated, "registration successful")
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookie.set(w, result.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: result.AccessToken})
}

// Logout handles DELETE /auth/logout. Without a live session it answers 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.service.Logout(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !cleared {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.cookie.clear(w)
	httputil.WriteMessage(w, http.StatusOK, "logged out")
}

// Token handles GET /token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	accessToken, err := h.service.RefreshAccessToken(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, id)
}

// tokenValidator bridges access-token verification to the auth middleware.
func tokenValidator(svc *service.AuthService) middleware.TokenValidator {
	return func(token string) (*middleware.Identity, error) {
		id, err := svc.VerifyAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Identity{UserID: id.UserID, Email: id.Email, Name: id.Name}, nil
	}
}
