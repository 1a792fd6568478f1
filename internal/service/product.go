package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/event"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/repository"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/pagination"
)

// ProductService implements product listing and owner-scoped mutations.
type ProductService struct {
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{products: products, producer: producer, logger: logger}
}

// ProductInput holds the writable product fields.
type ProductInput struct {
	Name  string
	Price float64
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return apperrors.InvalidInput("name is required")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return apperrors.InvalidInput("price must be a non-negative number")
	}
	return nil
}

// List returns a page of all products.
func (s *ProductService) List(ctx context.Context, p pagination.Params) (pagination.Result[domain.Product], error) {
	return s.list(ctx, "", p)
}

// ListForUser returns a page of one user's products.
func (s *ProductService) ListForUser(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.Product], error) {
	return s.list(ctx, userID, p)
}

func (s *ProductService) list(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.Product], error) {
	products, total, err := s.products.List(ctx, domain.ProductFilter{
		UserID: userID,
		Search: p.Search,
		Limit:  p.Limit,
		Offset: p.Offset(),
	})
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, p), nil
}

// Get returns a product owned by userID.
func (s *ProductService) Get(ctx context.Context, userID string, id int64) (*domain.Product, error) {
	p, err := s.products.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create adds a product owned by userID.
func (s *ProductService) Create(ctx context.Context, userID string, input ProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	p := &domain.Product{Name: input.Name, Price: input.Price, UserID: userID}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.Int64("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", p.ID),
		slog.String("user_id", userID),
	)
	return p, nil
}

// Update replaces name and price of a product owned by userID.
func (s *ProductService) Update(ctx context.Context, userID string, id int64, input ProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	p := &domain.Product{ID: id, Name: input.Name, Price: input.Price, UserID: userID}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.Int64("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", p.ID),
		slog.String("user_id", userID),
	)
	return p, nil
}

// Delete removes a product owned by userID and returns it.
func (s *ProductService) Delete(ctx context.Context, userID string, id int64) (*domain.Product, error) {
	p, err := s.products.Delete(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.Int64("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.Int64("product_id", p.ID),
		slog.String("user_id", userID),
	)
	return p, nil
}
