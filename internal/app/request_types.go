package app

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest is the input for recording a sale from a form.
// TotalPrice may be left zero; it is then quantity × unit price.
type CreateSaleRequest struct {
	ProductType  string          `json:"product_type" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CustomerName string          `json:"customer_name" validate:"max=120"`
	Status       string          `json:"status" validate:"omitempty,oneof=paid pending"`
	Notes        string          `json:"notes" validate:"max=500"`
	CreatedBy    *int            `json:"-"`
}

// CreateDebtRequest is the input for recording a debt.
type CreateDebtRequest struct {
	CustomerName string          `json:"customer_name" validate:"required,max=120"`
	Phone        string          `json:"phone" validate:"max=32"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes        string          `json:"notes" validate:"max=500"`
	CreatedBy    *int            `json:"-"`
}

// DebtPaymentRequest is a partial payment against a debt.
type DebtPaymentRequest struct {
	DebtID int             `json:"-"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateProductRequest is the input for adding a catalog entry.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=60"`
	Grade        string          `json:"grade" validate:"max=60"`
	DefaultPrice decimal.Decimal `json:"default_price"`
}

// AnalyzeImageRequest carries a ledger photo for vision analysis.
type AnalyzeImageRequest struct {
	Image       []byte
	Instruction string
	CreatedBy   *int
}

// Assistant modes.
const (
	ModeText    = "text"
	ModeImage   = "image"
	ModeCommand = "command"
)

// Assistant commands.
const (
	CommandAddDebt       = "addDebt"
	CommandMarkDebtPaid  = "markDebtPaid"
	CommandDailyReport   = "dailyReport"
	CommandMonthlyReport = "monthlyReport"
)

// AssistRequest is the body of the assistant endpoint.
type AssistRequest struct {
	Mode        string          `json:"mode"`
	Text        string          `json:"text,omitempty"`
	ImageBase64 string          `json:"imageBase64,omitempty"`
	UserID      *int            `json:"userId,omitempty"`
	Command     string          `json:"command,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// addDebtPayload is the payload of the addDebt command.
type addDebtPayload struct {
	Customer string          `json:"customer" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
	DueDate  string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Phone    string          `json:"phone"`
}

type markDebtPaidPayload struct {
	ID int `json:"id" validate:"required,gt=0"`
}

type monthlyReportPayload struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=9999"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}
