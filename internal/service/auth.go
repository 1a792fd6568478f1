package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/auth"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/event"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/repository"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements registration, login, logout and the refresh-token
// session checks.
type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	producer *event.Producer
	metrics  *AuthMetrics
	logger   *slog.Logger
	cost     int
	compare  func(hash, password []byte) error

	// decoyHash is compared against on unknown emails so both login
	// failures cost one bcrypt comparison.
	decoyOnce sync.Once
	decoyHash []byte
}

// NewAuthService creates a new auth service. metrics may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	producer *event.Producer,
	metrics *AuthMetrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
		cost:     bcryptCost,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

func (s *AuthService) decoy() []byte {
	s.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cost)
		if err != nil {
			s.logger.Error("generate decoy password hash", slog.String("error", err.Error()))
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Register creates a new account. The password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	switch {
	case input.Name == "":
		return nil, apperrors.InvalidInput("name is required")
	case input.Email == "":
		return nil, apperrors.InvalidInput("email is required")
	case input.Password == "":
		return nil, apperrors.InvalidInput("password is required")
	case input.ConfirmPassword == "":
		return nil, apperrors.InvalidInput("confirm password is required")
	case input.Password != input.ConfirmPassword:
		return nil, apperrors.InvalidInput("passwords do not match")
	}

	_, err := s.users.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, apperrors.AlreadyExists("user", "email", input.Email)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still guards against a concurrent registration.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.inc(EventRegister)

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login checks credentials, issues both tokens and stores the refresh token
// as the user's only session. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = s.compare(s.decoy(), []byte(password))
			s.metrics.inc(EventLoginFailure)
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.inc(EventLoginFailure)
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("user_id", user.ID),
		)
		return nil, apperrors.InvalidCredentials()
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	// A later login from elsewhere overwrites this session.
	if err := s.users.SetRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &refreshToken

	s.metrics.inc(EventLoginSuccess)
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout ends the session identified by refreshToken. It reports whether a
// session was actually cleared; an absent or unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get user by refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("clear refresh token: %w", err)
	}

	s.metrics.inc(EventLogout)
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", user.ID),
	)

	return true, nil
}

// RefreshAccessToken mints a new access token for the holder of a live
// refresh token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Unauthorized("refresh token is required")
	}

	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		return "", apperrors.Forbidden("invalid or expired refresh token")
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.Forbidden("refresh token is not an active session")
		}
		return "", fmt.Errorf("get user by refresh token: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Identity())
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	s.metrics.inc(EventTokenRefresh)
	return accessToken, nil
}

// VerifySession checks that refreshToken is a valid, live session belonging
// to userID and returns that user. Checks run in order and the first failure
// is returned: missing token (401), bad signature or expiry (403), unknown
// user (404), token not the user's stored session (403).
func (s *AuthService) VerifySession(ctx context.Context, userID, refreshToken string) (*domain.User, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("refresh token is required")
	}

	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		return nil, apperrors.Forbidden("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get session user: %w", err)
	}

	if !user.HasSession(refreshToken) {
		return nil, apperrors.Forbidden("refresh token does not match the user's session")
	}

	return user, nil
}

// VerifyAccessToken returns the identity carried by a valid access token.
func (s *AuthService) VerifyAccessToken(token string) (*domain.Identity, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	id := claims.Identity()
	return &id, nil
}

// RefreshTokenTTL is how long an issued refresh token stays valid.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.tokens.RefreshExpiry()
}
