package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaleService persists and queries sales.
type SaleService interface {
	Create(ctx context.Context, in SaleInput) (*Sale, error)
	// CreateBatch stores all inputs in one transaction: either every sale is
	// written or none is.
	CreateBatch(ctx context.Context, inputs []SaleInput) ([]Sale, error)
	Get(ctx context.Context, id int) (*Sale, error)
	List(ctx context.Context, f SaleFilter) ([]Sale, error)
	MarkPaid(ctx context.Context, id int) (*Sale, error)
}

type saleService struct {
	pool *pgxpool.Pool
}

// NewSaleService constructs a SaleService backed by PostgreSQL.
func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const saleColumns = `id, product_type, quantity, unit_price, total_price, customer_name,
	status, source, image_url, notes, created_by, created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	var status, source string
	err := row.Scan(&s.ID, &s.ProductType, &s.Quantity, &s.UnitPrice, &s.TotalPrice, &s.CustomerName,
		&status, &source, &s.ImageURL, &s.Notes, &s.CreatedBy, &s.CreatedAt)
	s.Status = SaleStatus(status)
	s.Source = SaleSource(source)
	return s, err
}

func insertSale(ctx context.Context, q pgxQuerier, in SaleInput) (*Sale, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s, err := scanSale(q.QueryRow(ctx, `
		INSERT INTO sales (product_type, quantity, unit_price, total_price, customer_name,
		                   status, source, image_url, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+saleColumns,
		in.ProductType, in.Quantity, in.UnitPrice, in.TotalPrice, in.CustomerName,
		string(in.Status), string(in.Source), in.ImageURL, in.Notes, in.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}
	return &s, nil
}

func (s *saleService) Create(ctx context.Context, in SaleInput) (*Sale, error) {
	return insertSale(ctx, s.pool, in)
}

func (s *saleService) CreateBatch(ctx context.Context, inputs []SaleInput) ([]Sale, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	out := make([]Sale, 0, len(inputs))
	for i, in := range inputs {
		sale, err := insertSale(ctx, tx, in)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		out = append(out, *sale)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sales batch: %w", err)
	}
	return out, nil
}

func (s *saleService) Get(ctx context.Context, id int) (*Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", id, err)
	}
	return &sale, nil
}

func (s *saleService) List(ctx context.Context, f SaleFilter) ([]Sale, error) {
	q := "SELECT " + saleColumns + " FROM sales"

	var clauses []string
	var args []any
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Source != "" {
		args = append(args, string(f.Source))
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}
	if f.Customer != "" {
		args = append(args, f.Customer)
		clauses = append(clauses, fmt.Sprintf("customer_name = $%d", len(args)))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales row iteration error: %w", err)
	}
	return sales, nil
}

func (s *saleService) MarkPaid(ctx context.Context, id int) (*Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx,
		"UPDATE sales SET status = 'paid' WHERE id = $1 RETURNING "+saleColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark sale %d paid: %w", id, err)
	}
	return &sale, nil
}
