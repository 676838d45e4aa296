package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductService manages the product catalog.
type ProductService interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, name, grade string, defaultPrice decimal.Decimal) (*Product, error)
}

type productService struct {
	pool *pgxpool.Pool
}

// NewProductService constructs a ProductService backed by PostgreSQL.
func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

func (s *productService) List(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, grade, default_price, is_active, created_at
		FROM products
		WHERE is_active = true
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Grade, &p.DefaultPrice, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *productService) Create(ctx context.Context, name, grade string, defaultPrice decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if defaultPrice.IsNegative() {
		return nil, fmt.Errorf("%w: default price cannot be negative", ErrInvalidInput)
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, grade, default_price)
		VALUES ($1, $2, $3)
		RETURNING id, name, grade, default_price, is_active, created_at
	`, name, strings.TrimSpace(grade), defaultPrice).Scan(
		&p.ID, &p.Name, &p.Grade, &p.DefaultPrice, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}
