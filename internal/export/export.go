// Package export renders customer statements and sales spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"time"

	"qat-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Statement is everything recorded under one customer. Dates print in
// Location, or UTC when it is nil.
type Statement struct {
	ShopName     string
	CustomerName string
	Currency     string
	GeneratedAt  time.Time
	Location     *time.Location
	Sales        []core.Sale
	Debts        []core.Debt
}

// StatementTotals are the footer figures of a statement.
type StatementTotals struct {
	Sales         decimal.Decimal
	PendingSales  decimal.Decimal
	DebtRemaining decimal.Decimal
}

// Totals sums the statement.
func (s Statement) Totals() StatementTotals {
	var t StatementTotals
	for _, sale := range s.Sales {
		t.Sales = t.Sales.Add(sale.TotalPrice)
		if sale.Status == core.SaleStatusPending {
			t.PendingSales = t.PendingSales.Add(sale.TotalPrice)
		}
	}
	for _, d := range s.Debts {
		t.DebtRemaining = t.DebtRemaining.Add(d.RemainingAmount)
	}
	return t
}

var statementTmpl = template.Must(template.New("statement").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  formatDate(time.UTC),
	"saleStatus": func(s core.SaleStatus) string {
		if s == core.SaleStatusPending {
			return "آجل"
		}
		return "مدفوع"
	},
	"debtStatus": func(s core.DebtStatus) string {
		switch s {
		case core.DebtStatusPaid:
			return "مسدد"
		case core.DebtStatusPartial:
			return "مسدد جزئياً"
		default:
			return "غير مسدد"
		}
	},
}).Parse(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word">
<head>
<meta charset="utf-8">
<title>كشف حساب {{.CustomerName}}</title>
<style>
body { font-family: "Traditional Arabic", Tahoma, sans-serif; direction: rtl; }
table { border-collapse: collapse; width: 100%; margin-bottom: 16pt; }
th, td { border: 1px solid #444; padding: 4pt 6pt; text-align: right; }
th { background: #e8f0e8; }
</style>
</head>
<body dir="rtl">
<h2>{{.ShopName}}</h2>
<h3>كشف حساب العميل: {{.CustomerName}}</h3>
<p>تاريخ الإصدار: {{date .GeneratedAt}}</p>

<h4>المبيعات</h4>
{{if .Sales}}
<table>
<tr><th>التاريخ</th><th>النوع</th><th>الكمية</th><th>السعر</th><th>الإجمالي</th><th>الحالة</th></tr>
{{range .Sales}}<tr><td>{{date .CreatedAt}}</td><td>{{.ProductType}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{money .TotalPrice}}</td><td>{{saleStatus .Status}}</td></tr>
{{end}}</table>
{{else}}<p>لا توجد مبيعات.</p>{{end}}

<h4>الديون</h4>
{{if .Debts}}
<table>
<tr><th>التاريخ</th><th>المبلغ</th><th>المدفوع</th><th>المتبقي</th><th>الاستحقاق</th><th>الحالة</th><th>ملاحظات</th></tr>
{{range .Debts}}<tr><td>{{date .CreatedAt}}</td><td>{{money .Amount}}</td><td>{{money .PaidAmount}}</td><td>{{money .RemainingAmount}}</td><td>{{.DueDate}}</td><td>{{debtStatus .Status}}</td><td>{{.Notes}}</td></tr>
{{end}}</table>
{{else}}<p>لا توجد ديون.</p>{{end}}

{{$t := .Totals}}
<table>
<tr><th>إجمالي المبيعات</th><td>{{money $t.Sales}} {{.Currency}}</td></tr>
<tr><th>مبيعات آجلة</th><td>{{money $t.PendingSales}} {{.Currency}}</td></tr>
<tr><th>المتبقي من الديون</th><td>{{money $t.DebtRemaining}} {{.Currency}}</td></tr>
</table>
</body>
</html>
`))

func formatDate(loc *time.Location) func(time.Time) string {
	return func(t time.Time) string { return t.In(loc).Format("2006-01-02 15:04") }
}

// RenderStatementDoc writes the statement as an HTML document that word
// processors open as .doc.
func RenderStatementDoc(w io.Writer, s Statement) error {
	if s.Currency == "" {
		s.Currency = "ريال"
	}
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now()
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	tmpl, err := statementTmpl.Clone()
	if err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	tmpl.Funcs(template.FuncMap{"date": formatDate(loc)})
	if err := tmpl.Execute(w, s); err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	return nil
}

// WriteSalesCSV writes sales as UTF-8 CSV with a byte-order mark so
// spreadsheet apps detect the Arabic text.
func WriteSalesCSV(w io.Writer, sales []core.Sale, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "product_type", "quantity", "unit_price", "total_price", "customer_name", "status", "source"}); err != nil {
		return err
	}
	for _, s := range sales {
		if err := cw.Write([]string{
			fmt.Sprint(s.ID),
			s.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			s.ProductType,
			s.Quantity.String(),
			s.UnitPrice.StringFixed(2),
			s.TotalPrice.StringFixed(2),
			s.CustomerName,
			string(s.Status),
			string(s.Source),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
