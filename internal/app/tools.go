package app

import (
	"context"
	"encoding/json"
	"fmt"

	"qat-ledger/internal/ai"
	"qat-ledger/internal/core"
)

// buildReadTools registers the read-only tools the chat model may call.
func (s *appService) buildReadTools() *ai.ToolRegistry {
	r := ai.NewToolRegistry()
	empty := ai.ObjectSchema(map[string]any{})

	r.Register(ai.ToolDefinition{
		Name:        "get_daily_report",
		Description: "Today's sales: total, count, totals per qat type and the sale rows.",
		InputSchema: empty,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			rep, err := s.reports.Daily(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(rep)
		},
	})

	r.Register(ai.ToolDefinition{
		Name:        "get_monthly_report",
		Description: "Sales report for one calendar month.",
		InputSchema: ai.ObjectSchema(map[string]any{
			"year":  map[string]any{"type": "integer", "description": "Four-digit year"},
			"month": map[string]any{"type": "integer", "description": "Month 1-12"},
		}),
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			year, ok1 := ai.IntParam(params, "year")
			month, ok2 := ai.IntParam(params, "month")
			if !ok1 || !ok2 {
				return "", fmt.Errorf("year and month are required")
			}
			rep, err := s.reports.Monthly(ctx, year, month)
			if err != nil {
				return "", err
			}
			rep.Items = nil // totals are enough for the model
			return toJSON(rep)
		},
	})

	r.Register(ai.ToolDefinition{
		Name:        "get_debt_summary",
		Description: "Totals over all customer debts: count, open, total, paid and remaining.",
		InputSchema: empty,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			sum, err := s.reports.Debts(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(sum)
		},
	})

	r.Register(ai.ToolDefinition{
		Name:        "list_open_debts",
		Description: "Debts that are not fully paid, with customer, remaining amount and due date.",
		InputSchema: empty,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			unpaid, err := s.debts.List(ctx, core.DebtStatusUnpaid)
			if err != nil {
				return "", err
			}
			partial, err := s.debts.List(ctx, core.DebtStatusPartial)
			if err != nil {
				return "", err
			}
			return toJSON(append(unpaid, partial...))
		},
	})

	r.Register(ai.ToolDefinition{
		Name:        "list_customers",
		Description: "Customers with their sales count, sales total, pending sales and remaining debt.",
		InputSchema: empty,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			customers, err := s.reports.Customers(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(customers)
		},
	})

	r.Register(ai.ToolDefinition{
		Name:        "list_products",
		Description: "The qat types the shop sells and their default prices.",
		InputSchema: empty,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			products, err := s.products.List(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(products)
		},
	})

	return r
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
