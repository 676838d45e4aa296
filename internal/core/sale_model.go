package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one recorded qat sale.
// TotalPrice is stored as given; it is only derived from Quantity × UnitPrice
// when the caller leaves it at zero.
type Sale struct {
	ID           int             `json:"id"`
	ProductType  string          `json:"product_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CustomerName string          `json:"customer_name"`
	Status       SaleStatus      `json:"status"`
	Source       SaleSource      `json:"source"`
	ImageURL     string          `json:"image_url,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    *int            `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaleInput is the write model for a new sale.
type SaleInput struct {
	ProductType  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	CustomerName string
	Status       SaleStatus
	Source       SaleSource
	ImageURL     string
	Notes        string
	CreatedBy    *int
}

// Normalize trims text fields and fills defaults.
func (in *SaleInput) Normalize() {
	in.ProductType = strings.TrimSpace(in.ProductType)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.Quantity.IsZero() {
		in.Quantity = decimal.NewFromInt(1)
	}
	if in.TotalPrice.IsZero() {
		in.TotalPrice = in.Quantity.Mul(in.UnitPrice).Round(2)
	}
	if in.CustomerName == "" {
		in.CustomerName = DefaultCustomerName
	}
	if in.Status == "" {
		in.Status = SaleStatusPaid
	}
	if in.Source == "" {
		in.Source = SaleSourceManual
	}
}

// Validate checks the invariants a sale must satisfy before it is stored.
func (in SaleInput) Validate() error {
	if in.ProductType == "" {
		return fmt.Errorf("%w: product type is required", ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be > 0, got %s", ErrInvalidInput, in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
	}
	if in.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: total price cannot be negative", ErrInvalidInput)
	}
	switch in.Status {
	case SaleStatusPaid, SaleStatusPending:
	default:
		return fmt.Errorf("%w: unknown sale status %q", ErrInvalidInput, in.Status)
	}
	switch in.Source {
	case SaleSourceManual, SaleSourceImage, SaleSourceAssistant:
	default:
		return fmt.Errorf("%w: unknown sale source %q", ErrInvalidInput, in.Source)
	}
	return nil
}

// SaleFilter narrows SaleService.List. Zero values mean "no bound".
// From is inclusive, To is exclusive.
type SaleFilter struct {
	From     time.Time
	To       time.Time
	Status   SaleStatus
	Source   SaleSource
	Customer string
	Limit    int
}
