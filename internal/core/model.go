package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request fails domain validation.
	ErrInvalidInput = errors.New("invalid input")
)

// DateLayout is the ISO calendar-date layout used for every date string in reports.
const DateLayout = "2006-01-02"

// DefaultCustomerName is recorded on sales that name no customer.
const DefaultCustomerName = "عميل نقدي"

// ProductTypes is the fixed set of qat grades the shop sells.
// The extractor matches product names against this list only.
var ProductTypes = []string{
	"شامي",
	"همداني",
	"عنسي",
	"صبري",
	"رداعي",
	"ارحبي",
	"حرازي",
}

// IsProductType reports whether name is one of ProductTypes.
func IsProductType(name string) bool {
	for _, p := range ProductTypes {
		if p == name {
			return true
		}
	}
	return false
}

type SaleStatus string

const (
	SaleStatusPaid    SaleStatus = "paid"
	SaleStatusPending SaleStatus = "pending"
)

type SaleSource string

const (
	SaleSourceManual    SaleSource = "manual"
	SaleSourceImage     SaleSource = "image"
	SaleSourceAssistant SaleSource = "assistant"
)

type DebtStatus string

const (
	DebtStatusUnpaid  DebtStatus = "unpaid"
	DebtStatusPartial DebtStatus = "partial"
	DebtStatusPaid    DebtStatus = "paid"
)

// Product is a catalog entry. It is used for display and as prompt context.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Grade        string          `json:"grade"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CustomerSummary aggregates everything recorded under one customer name.
type CustomerSummary struct {
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	SalesCount    int             `json:"sales_count"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	PendingSales  decimal.Decimal `json:"pending_sales"`
	DebtRemaining decimal.Decimal `json:"debt_remaining"`
}
