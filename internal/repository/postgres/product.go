package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/database"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
)

const productColumns = `id, name, price, user_id, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product and sets its id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (name, price, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	if err = r.db.QueryRow(ctx, query, p.Name, p.Price, p.UserID, now, now).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now

	return nil
}

// GetForUser retrieves a product by id, only if userID owns it.
func (r *ProductRepository) GetForUser(ctx context.Context, userID string, id int64) (_ *domain.Product, err error) {
	if _, perr := uuid.Parse(userID); perr != nil {
		return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetProductForUser", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns a page of products and the total number matching filter.
// The search term is matched as a literal, case-sensitive substring.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (products []domain.Product, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != "" {
		if _, perr := uuid.Parse(filter.UserID); perr != nil {
			return []domain.Product{}, 0, nil
		}
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, filter.UserID)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("strpos(name, $%d) > 0", argIndex))
		args = append(args, filter.Search)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT count(*) FROM products` + whereClause
	listQuery := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY id LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1)

	ctx, end := database.TraceQuery(ctx, "ListProducts", listQuery)
	defer func() { end(err) }()

	// Counted separately so that a page past the end still reports the total.
	if err = r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.Query(ctx, listQuery, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, total, nil
}

// Update writes name and price. The row must belong to p.UserID.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET name = $1, price = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5
		RETURNING created_at`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	p.UpdatedAt = time.Now().UTC()
	err = r.db.QueryRow(ctx, query, p.Name, p.Price, p.UpdatedAt, p.ID, p.UserID).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", strconv.FormatInt(p.ID, 10))
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

// Delete removes a product owned by userID and returns it.
func (r *ProductRepository) Delete(ctx context.Context, userID string, id int64) (_ *domain.Product, err error) {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2 RETURNING ` + productColumns

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
