package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"qat-ledger/internal/ai"
)

func TestToolRegistry_Call(t *testing.T) {
	r := ai.NewToolRegistry()
	r.Register(ai.ToolDefinition{
		Name:        "get_monthly_report",
		Description: "monthly sales",
		InputSchema: ai.ObjectSchema(map[string]any{
			"year":  map[string]any{"type": "integer"},
			"month": map[string]any{"type": "integer"},
		}),
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			y, _ := ai.IntParam(params, "year")
			m, ok := ai.IntParam(params, "month")
			if !ok {
				return "", errors.New("month required")
			}
			if y != 2024 || m != 2 {
				return "", errors.New("unexpected period")
			}
			return `{"total":"9000"}`, nil
		},
	})

	ctx := context.Background()
	if got := r.Call(ctx, "get_monthly_report", `{"year":2024,"month":2}`); got != `{"total":"9000"}` {
		t.Errorf("Call = %s", got)
	}
	if got := r.Call(ctx, "get_monthly_report", `{"year":2024}`); !strings.Contains(got, "month required") {
		t.Errorf("missing arg result = %s", got)
	}
	if got := r.Call(ctx, "get_monthly_report", `not json`); !strings.Contains(got, "invalid arguments") {
		t.Errorf("bad json result = %s", got)
	}
	if got := r.Call(ctx, "drop_tables", `{}`); !strings.Contains(got, "unknown tool") {
		t.Errorf("unknown tool result = %s", got)
	}

	if n := len(r.ToOpenAITools()); n != 1 {
		t.Errorf("ToOpenAITools len = %d, want 1", n)
	}
}

func TestToolRegistry_NilIsEmpty(t *testing.T) {
	var r *ai.ToolRegistry
	if len(r.All()) != 0 || len(r.ToOpenAITools()) != 0 {
		t.Error("nil registry should expose no tools")
	}
	if _, ok := r.Get("x"); ok {
		t.Error("nil registry Get should miss")
	}
}
