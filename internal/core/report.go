package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SalesReport is a date-bounded total over sales.
// Total always equals the sum of Items[].TotalPrice.
type SalesReport struct {
	Period string                     `json:"period"` // "daily" or "monthly"
	Start  string                     `json:"start"`  // YYYY-MM-DD, inclusive
	End    string                     `json:"end"`    // YYYY-MM-DD, inclusive
	Total  decimal.Decimal            `json:"total"`
	Count  int                        `json:"count"`
	Items  []Sale                     `json:"items"`
	ByType map[string]decimal.Decimal `json:"by_type"`
}

// DebtSummary totals a set of debts.
type DebtSummary struct {
	Count     int             `json:"count"`
	Open      int             `json:"open"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// DailyReport keeps the sales whose creation date, in now's location, is
// now's calendar date.
func DailyReport(sales []Sale, now time.Time) SalesReport {
	day := now.Format(DateLayout)
	return aggregate("daily", day, day, sales, now.Location())
}

// MonthBounds returns the first and last calendar dates of a month.
// The last day is day 0 of the following month, so February follows leap years.
func MonthBounds(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("%w: month must be 1-12, got %d", ErrInvalidInput, month)
	}
	if year < 1 {
		return "", "", fmt.Errorf("%w: invalid year %d", ErrInvalidInput, year)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// MonthlyReport keeps the sales whose creation date in loc falls within the
// month, both bounds inclusive.
func MonthlyReport(sales []Sale, year, month int, loc *time.Location) (SalesReport, error) {
	start, end, err := MonthBounds(year, month)
	if err != nil {
		return SalesReport{}, err
	}
	return aggregate("monthly", start, end, sales, loc), nil
}

// aggregate filters by ISO date string. YYYY-MM-DD strings sort the same way
// lexically and chronologically, so plain string comparison is enough.
func aggregate(period, start, end string, sales []Sale, loc *time.Location) SalesReport {
	if loc == nil {
		loc = time.UTC
	}
	r := SalesReport{
		Period: period,
		Start:  start,
		End:    end,
		Total:  decimal.Zero,
		Items:  []Sale{},
		ByType: map[string]decimal.Decimal{},
	}
	for _, s := range sales {
		day := s.CreatedAt.In(loc).Format(DateLayout)
		if day < start || day > end {
			continue
		}
		r.Items = append(r.Items, s)
		r.Total = r.Total.Add(s.TotalPrice)
		r.ByType[s.ProductType] = r.ByType[s.ProductType].Add(s.TotalPrice)
	}
	r.Count = len(r.Items)
	return r
}

// SummarizeDebts totals debts. A debt is open until fully paid.
func SummarizeDebts(debts []Debt) DebtSummary {
	sum := DebtSummary{Total: decimal.Zero, Paid: decimal.Zero, Remaining: decimal.Zero}
	for _, d := range debts {
		sum.Count++
		sum.Total = sum.Total.Add(d.Amount)
		sum.Paid = sum.Paid.Add(d.PaidAmount)
		sum.Remaining = sum.Remaining.Add(d.RemainingAmount)
		if d.Status != DebtStatusPaid {
			sum.Open++
		}
	}
	return sum
}

// SummarizeCustomers groups sales and debts by customer name, largest
// outstanding debt first.
func SummarizeCustomers(sales []Sale, debts []Debt) []CustomerSummary {
	byName := map[string]*CustomerSummary{}
	get := func(name string) *CustomerSummary {
		c, ok := byName[name]
		if !ok {
			c = &CustomerSummary{Name: name}
			byName[name] = c
		}
		return c
	}

	for _, s := range sales {
		c := get(s.CustomerName)
		c.SalesCount++
		c.SalesTotal = c.SalesTotal.Add(s.TotalPrice)
		if s.Status == SaleStatusPending {
			c.PendingSales = c.PendingSales.Add(s.TotalPrice)
		}
	}
	for _, d := range debts {
		c := get(d.CustomerName)
		c.DebtRemaining = c.DebtRemaining.Add(d.RemainingAmount)
		if c.Phone == "" {
			c.Phone = d.Phone
		}
	}

	out := make([]CustomerSummary, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].DebtRemaining.Cmp(out[j].DebtRemaining); cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
