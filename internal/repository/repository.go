package repository

import (
	"context"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
// Lookups that find nothing return apperrors.ErrNotFound.
type UserRepository interface {
	// Create inserts a new user. A taken email yields ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByRefreshToken retrieves the user whose stored session is token.
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]domain.User, error)

	// Update persists the user's name and email.
	Update(ctx context.Context, user *domain.User) error

	// SetRefreshToken replaces the stored session. A nil token logs the user out.
	SetRefreshToken(ctx context.Context, userID string, token *string) error
}

// ProductRepository defines the interface for product persistence operations.
// Every single-product operation is scoped to its owner.
type ProductRepository interface {
	// Create inserts a product and fills in its generated id.
	Create(ctx context.Context, product *domain.Product) error

	// GetForUser retrieves a product owned by userID.
	GetForUser(ctx context.Context, userID string, id int64) (*domain.Product, error)

	// List returns one page of products matching filter, ordered by id, and
	// the number of rows matching filter across all pages.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)

	// Update persists name and price of a product owned by product.UserID.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product owned by userID and returns the removed row.
	Delete(ctx context.Context, userID string, id int64) (*domain.Product, error)
}
