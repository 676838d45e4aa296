package core

import (
	"context"
	"fmt"
	"time"
)

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reports over sales and debts.
// Rows are fetched for the report window and reduced in memory by the pure
// aggregators in report.go.
type ReportingService interface {
	// Daily returns today's sales report in the business location.
	Daily(ctx context.Context) (*SalesReport, error)

	// Monthly returns the sales report for the given calendar month.
	Monthly(ctx context.Context, year, month int) (*SalesReport, error)

	// Debts totals all debts.
	Debts(ctx context.Context) (*DebtSummary, error)

	// Customers groups every sale and debt by customer name.
	Customers(ctx context.Context) ([]CustomerSummary, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	sales SaleService
	debts DebtService
	loc   *time.Location
	now   func() time.Time
}

// NewReportingService constructs a ReportingService. Calendar dates are
// evaluated in loc (UTC when nil).
func NewReportingService(sales SaleService, debts DebtService, loc *time.Location) ReportingService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportingService{sales: sales, debts: debts, loc: loc, now: time.Now}
}

func (s *reportingService) Daily(ctx context.Context) (*SalesReport, error) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	sales, err := s.sales.List(ctx, SaleFilter{From: from, To: from.AddDate(0, 0, 1)})
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	r := DailyReport(sales, now)
	return &r, nil
}

func (s *reportingService) Monthly(ctx context.Context, year, month int) (*SalesReport, error) {
	if _, _, err := MonthBounds(year, month); err != nil {
		return nil, err
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)

	sales, err := s.sales.List(ctx, SaleFilter{From: from, To: from.AddDate(0, 1, 0)})
	if err != nil {
		return nil, fmt.Errorf("monthly report %04d-%02d: %w", year, month, err)
	}
	r, err := MonthlyReport(sales, year, month, s.loc)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *reportingService) Debts(ctx context.Context) (*DebtSummary, error) {
	debts, err := s.debts.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("debt summary: %w", err)
	}
	sum := SummarizeDebts(debts)
	return &sum, nil
}

func (s *reportingService) Customers(ctx context.Context) ([]CustomerSummary, error) {
	sales, err := s.sales.List(ctx, SaleFilter{})
	if err != nil {
		return nil, fmt.Errorf("customer summary: %w", err)
	}
	debts, err := s.debts.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("customer summary: %w", err)
	}
	return SummarizeCustomers(sales, debts), nil
}
