package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DebtService persists customer debts and their repayments.
//
// Payments run inside a transaction that locks the debt row (SELECT … FOR UPDATE),
// so two concurrent payments on the same debt serialize instead of overwriting
// each other's paid_amount.
type DebtService interface {
	Create(ctx context.Context, in DebtInput) (*Debt, error)
	Get(ctx context.Context, id int) (*Debt, error)
	// List returns debts, optionally filtered by status; an empty status lists all.
	List(ctx context.Context, status DebtStatus) ([]Debt, error)
	ByCustomer(ctx context.Context, customerName string) ([]Debt, error)
	// MarkPaid settles whatever remains on the debt.
	MarkPaid(ctx context.Context, id int) (*Debt, error)
	// RecordPayment applies a partial (or final) payment.
	RecordPayment(ctx context.Context, id int, amount decimal.Decimal) (*Debt, error)
}

type debtService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewDebtService constructs a DebtService backed by PostgreSQL.
func NewDebtService(pool *pgxpool.Pool) DebtService {
	return &debtService{pool: pool, now: time.Now}
}

const debtColumns = `id, customer_name, phone, amount, paid_amount, remaining_amount, status,
	COALESCE(due_date::text, ''), notes, created_by, created_at, paid_at`

func scanDebt(row pgx.Row) (Debt, error) {
	var d Debt
	var status string
	err := row.Scan(&d.ID, &d.CustomerName, &d.Phone, &d.Amount, &d.PaidAmount, &d.RemainingAmount, &status,
		&d.DueDate, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.PaidAt)
	d.Status = DebtStatus(status)
	return d, err
}

func (s *debtService) Create(ctx context.Context, in DebtInput) (*Debt, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var dueDate *string
	if in.DueDate != "" {
		dueDate = &in.DueDate
	}

	d, err := scanDebt(s.pool.QueryRow(ctx, `
		INSERT INTO debts (customer_name, phone, amount, paid_amount, remaining_amount, status, due_date, notes, created_by)
		VALUES ($1, $2, $3, 0, $3, 'unpaid', $4::date, $5, $6)
		RETURNING `+debtColumns,
		in.CustomerName, in.Phone, in.Amount, dueDate, in.Notes, in.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert debt: %w", err)
	}
	return &d, nil
}

func (s *debtService) Get(ctx context.Context, id int) (*Debt, error) {
	d, err := scanDebt(s.pool.QueryRow(ctx, "SELECT "+debtColumns+" FROM debts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("debt %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch debt %d: %w", id, err)
	}
	return &d, nil
}

func (s *debtService) List(ctx context.Context, status DebtStatus) ([]Debt, error) {
	if status == "" {
		return s.query(ctx, "SELECT "+debtColumns+" FROM debts ORDER BY created_at DESC, id DESC")
	}
	return s.query(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE status = $1 ORDER BY created_at DESC, id DESC",
		string(status))
}

func (s *debtService) ByCustomer(ctx context.Context, customerName string) ([]Debt, error) {
	return s.query(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE customer_name = $1 ORDER BY created_at ASC, id ASC",
		customerName)
}

func (s *debtService) query(ctx context.Context, q string, args ...any) ([]Debt, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	var debts []Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("debts row iteration error: %w", err)
	}
	return debts, nil
}

func (s *debtService) MarkPaid(ctx context.Context, id int) (*Debt, error) {
	return s.update(ctx, id, func(d *Debt) error {
		return d.SettleInFull(s.now())
	})
}

func (s *debtService) RecordPayment(ctx context.Context, id int, amount decimal.Decimal) (*Debt, error) {
	return s.update(ctx, id, func(d *Debt) error {
		return d.ApplyPayment(amount, s.now())
	})
}

// update loads the debt under a row lock, applies fn and writes the result back.
func (s *debtService) update(ctx context.Context, id int, fn func(d *Debt) error) (*Debt, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := scanDebt(tx.QueryRow(ctx, "SELECT "+debtColumns+" FROM debts WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("debt %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock debt %d: %w", id, err)
	}

	if err := fn(&d); err != nil {
		return nil, err
	}

	updated, err := scanDebt(tx.QueryRow(ctx, `
		UPDATE debts
		SET paid_amount = $2, remaining_amount = $3, status = $4, paid_at = $5
		WHERE id = $1
		RETURNING `+debtColumns,
		d.ID, d.PaidAmount, d.RemainingAmount, string(d.Status), d.PaidAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update debt %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit debt %d: %w", id, err)
	}
	return &updated, nil
}
