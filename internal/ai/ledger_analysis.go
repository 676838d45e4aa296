package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// ErrUnreadableAnalysis is returned when the vision model's reply is not the
// expected JSON document.
var ErrUnreadableAnalysis = errors.New("unreadable ledger analysis")

// LedgerItem is one sale row read from a photographed ledger page.
type LedgerItem struct {
	Type         string          `json:"type" jsonschema:"description=Qat grade name exactly as one of the known product types"`
	Quantity     decimal.Decimal `json:"quantity" jsonschema:"type=number,description=Units sold; fractions allowed (0.25 0.33 0.5 0.67)"`
	UnitPrice    decimal.Decimal `json:"unit_price" jsonschema:"type=number,description=Price per unit in the local currency"`
	Total        decimal.Decimal `json:"total" jsonschema:"type=number,description=Row total as written on the page"`
	CustomerName string          `json:"customerName" jsonschema:"description=Customer name if written; empty otherwise"`
	Note         string          `json:"note" jsonschema:"description=Any remark on the row"`
}

// LedgerSummary totals the page.
type LedgerSummary struct {
	TotalSales decimal.Decimal            `json:"total_sales" jsonschema:"type=number"`
	ByType     map[string]decimal.Decimal `json:"by_type"`
}

// LedgerAnalysis is the JSON document the vision model is asked to return.
type LedgerAnalysis struct {
	Items   []LedgerItem  `json:"items"`
	Summary LedgerSummary `json:"summary"`
	Notes   string        `json:"notes"`
}

// LedgerAnalysisSchema returns the JSON Schema of LedgerAnalysis, embedded in
// the vision prompt.
func LedgerAnalysisSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&LedgerAnalysis{})
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return b, nil
}

// ParseLedgerAnalysis decodes the model reply. Markdown code fences around the
// JSON are tolerated; anything else that is not valid JSON fails the whole
// page, no partial rows are recovered.
func ParseLedgerAnalysis(raw string) (*LedgerAnalysis, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnreadableAnalysis)
	}

	var a LedgerAnalysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableAnalysis, err)
	}
	for i := range a.Items {
		a.Items[i].Type = strings.TrimSpace(a.Items[i].Type)
		a.Items[i].CustomerName = strings.TrimSpace(a.Items[i].CustomerName)
	}
	return &a, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
