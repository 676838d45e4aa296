package core_test

import (
	"testing"
	"time"

	"qat-ledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		year, month int
		start, end  string
		expectErr   bool
	}{
		{2024, 2, "2024-02-01", "2024-02-29", false},
		{2023, 2, "2023-02-01", "2023-02-28", false},
		{1900, 2, "1900-02-01", "1900-02-28", false},
		{2000, 2, "2000-02-01", "2000-02-29", false},
		{2024, 12, "2024-12-01", "2024-12-31", false},
		{2024, 4, "2024-04-01", "2024-04-30", false},
		{2024, 13, "", "", true},
		{2024, 0, "", "", true},
	}
	for _, tt := range tests {
		start, end, err := core.MonthBounds(tt.year, tt.month)
		if (err != nil) != tt.expectErr {
			t.Errorf("MonthBounds(%d, %d) err = %v, expectErr %v", tt.year, tt.month, err, tt.expectErr)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("MonthBounds(%d, %d) = %s..%s, want %s..%s", tt.year, tt.month, start, end, tt.start, tt.end)
		}
	}
}

func sale(product, total string, at time.Time) core.Sale {
	return core.Sale{
		ProductType:  product,
		Quantity:     decimal.NewFromInt(1),
		UnitPrice:    decimal.RequireFromString(total),
		TotalPrice:   decimal.RequireFromString(total),
		CustomerName: core.DefaultCustomerName,
		Status:       core.SaleStatusPaid,
		CreatedAt:    at,
	}
}

func TestMonthlyReport_InclusiveBounds(t *testing.T) {
	utc := time.UTC
	sales := []core.Sale{
		sale("شامي", "1000", time.Date(2024, 1, 31, 23, 59, 0, 0, utc)),
		sale("شامي", "2000", time.Date(2024, 2, 1, 0, 0, 0, 0, utc)),
		sale("همداني", "3000", time.Date(2024, 2, 15, 12, 0, 0, 0, utc)),
		sale("شامي", "4000", time.Date(2024, 2, 29, 23, 59, 59, 0, utc)),
		sale("شامي", "5000", time.Date(2024, 3, 1, 0, 0, 0, 0, utc)),
	}

	r, err := core.MonthlyReport(sales, 2024, 2, utc)
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if r.Count != 3 {
		t.Errorf("count = %d, want 3", r.Count)
	}
	if !r.Total.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("total = %s, want 9000", r.Total)
	}
	if !r.ByType["شامي"].Equal(decimal.NewFromInt(6000)) {
		t.Errorf("by type شامي = %s, want 6000", r.ByType["شامي"])
	}
	if r.Start != "2024-02-01" || r.End != "2024-02-29" {
		t.Errorf("bounds = %s..%s", r.Start, r.End)
	}
}

func TestDailyReport_UsesLocation(t *testing.T) {
	aden := time.FixedZone("AST", 3*60*60)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, aden)

	sales := []core.Sale{
		// 22:30 UTC on the 9th is 01:30 on the 10th in Aden.
		sale("شامي", "1500", time.Date(2024, 5, 9, 22, 30, 0, 0, time.UTC)),
		sale("شامي", "700", time.Date(2024, 5, 9, 20, 0, 0, 0, time.UTC)),
		sale("صبري", "250.50", time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)),
	}

	r := core.DailyReport(sales, now)
	if r.Count != 2 {
		t.Fatalf("count = %d, want 2", r.Count)
	}
	if r.Start != "2024-05-10" || r.End != "2024-05-10" {
		t.Errorf("bounds = %s..%s", r.Start, r.End)
	}
}

func TestDailyReport_TotalEqualsSumOfItems(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	fixtures := [][]string{
		{},
		{"1000"},
		{"0.33", "0.67", "1250.25"},
		{"5000", "20000", "1666.67", "3333.33", "75"},
	}
	for _, totals := range fixtures {
		var sales []core.Sale
		for i, tot := range totals {
			sales = append(sales, sale("شامي", tot, now.Add(-time.Duration(i)*time.Hour)))
		}
		r := core.DailyReport(sales, now)

		sum := decimal.Zero
		for _, it := range r.Items {
			sum = sum.Add(it.TotalPrice)
		}
		if !sum.Equal(r.Total) {
			t.Errorf("Σ items = %s, total = %s", sum, r.Total)
		}
		if r.Count != len(totals) {
			t.Errorf("count = %d, want %d", r.Count, len(totals))
		}
	}
}

func TestSummarizeDebts(t *testing.T) {
	debts := []core.Debt{
		{Amount: dec("1000"), PaidAmount: dec("0"), RemainingAmount: dec("1000"), Status: core.DebtStatusUnpaid},
		{Amount: dec("500"), PaidAmount: dec("200"), RemainingAmount: dec("300"), Status: core.DebtStatusPartial},
		{Amount: dec("800"), PaidAmount: dec("800"), RemainingAmount: dec("0"), Status: core.DebtStatusPaid},
	}
	sum := core.SummarizeDebts(debts)
	if sum.Count != 3 || sum.Open != 2 {
		t.Errorf("count/open = %d/%d, want 3/2", sum.Count, sum.Open)
	}
	if !sum.Total.Equal(dec("2300")) || !sum.Paid.Equal(dec("1000")) || !sum.Remaining.Equal(dec("1300")) {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSummarizeCustomers(t *testing.T) {
	now := time.Now()
	s1 := sale("شامي", "1000", now)
	s1.CustomerName = "علي"
	s2 := sale("شامي", "2000", now)
	s2.CustomerName = "علي"
	s2.Status = core.SaleStatusPending
	s3 := sale("شامي", "300", now)

	debts := []core.Debt{
		{CustomerName: "أحمد", Phone: "777123456", RemainingAmount: dec("5000")},
		{CustomerName: "علي", RemainingAmount: dec("100")},
	}

	got := core.SummarizeCustomers([]core.Sale{s1, s2, s3}, debts)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "أحمد" || got[0].Phone != "777123456" {
		t.Errorf("first = %+v, want أحمد with phone", got[0])
	}
	if got[1].Name != "علي" || got[1].SalesCount != 2 || !got[1].PendingSales.Equal(dec("2000")) {
		t.Errorf("second = %+v", got[1])
	}
}
