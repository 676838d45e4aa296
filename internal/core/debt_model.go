package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Debt is money a customer owes the shop.
// RemainingAmount is always Amount − PaidAmount, and Status follows from it.
type Debt struct {
	ID              int             `json:"id"`
	CustomerName    string          `json:"customer_name"`
	Phone           string          `json:"phone,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          DebtStatus      `json:"status"`
	DueDate         string          `json:"due_date,omitempty"` // YYYY-MM-DD
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       *int            `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}

// DebtInput is the write model for a new debt.
type DebtInput struct {
	CustomerName string
	Phone        string
	Amount       decimal.Decimal
	DueDate      string
	Notes        string
	CreatedBy    *int
}

// Normalize trims text fields.
func (in *DebtInput) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Notes = strings.TrimSpace(in.Notes)
}

// Validate checks that the debt names a customer, a positive amount and a
// well-formed due date.
func (in DebtInput) Validate() error {
	if in.CustomerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	if in.DueDate != "" {
		if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
			return fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	return nil
}

// DebtStatusFor derives the status from the amount and what has been paid.
func DebtStatusFor(amount, paid decimal.Decimal) DebtStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return DebtStatusPaid
	case paid.IsPositive():
		return DebtStatusPartial
	default:
		return DebtStatusUnpaid
	}
}

// ApplyPayment records a payment against d, keeping the remaining/status
// invariant. Overpayment and payments on a settled debt are rejected.
func (d *Debt) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if d.Status == DebtStatusPaid {
		return fmt.Errorf("%w: debt %d is already paid", ErrInvalidInput, d.ID)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment must be > 0", ErrInvalidInput)
	}
	remaining := d.Amount.Sub(d.PaidAmount)
	if amount.GreaterThan(remaining) {
		return fmt.Errorf("%w: payment %s exceeds remaining %s", ErrInvalidInput, amount, remaining)
	}

	d.PaidAmount = d.PaidAmount.Add(amount)
	d.RemainingAmount = d.Amount.Sub(d.PaidAmount)
	d.Status = DebtStatusFor(d.Amount, d.PaidAmount)
	if d.Status == DebtStatusPaid {
		d.PaidAt = &at
	}
	return nil
}

// SettleInFull pays whatever remains on d.
func (d *Debt) SettleInFull(at time.Time) error {
	return d.ApplyPayment(d.Amount.Sub(d.PaidAmount), at)
}
