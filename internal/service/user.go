package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/event"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/repository"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
)

// UserService implements the public user directory and profile updates.
type UserService struct {
	users    repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, producer *event.Producer, logger *slog.Logger) *UserService {
	return &UserService{users: users, producer: producer, logger: logger}
}

// UpdateUserInput holds the editable profile fields.
type UpdateUserInput struct {
	Name  string
	Email string
}

// List returns every user's public projection.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// Get returns one user's public projection.
func (s *UserService) Get(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

// Update changes name and email of a user whose session was already verified.
func (s *UserService) Update(ctx context.Context, user *domain.User, input UpdateUserInput) (*domain.PublicUser, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	user.Name = input.Name
	user.Email = input.Email

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", user.ID),
	)

	pub := user.Public()
	return &pub, nil
}
