package repl

import (
	"fmt"
	"sort"
	"strings"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
)

func printReport(r *core.SalesReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 66))
	if r.Start == r.End {
		fmt.Printf("  SALES REPORT  %s\n", r.Start)
	} else {
		fmt.Printf("  SALES REPORT  %s .. %s\n", r.Start, r.End)
	}
	fmt.Println(strings.Repeat("=", 66))
	if len(r.Items) == 0 {
		fmt.Println("  No sales in this period.")
	} else {
		fmt.Printf("  %-5s %-16s %-10s %8s %10s %12s\n", "ID", "TIME", "TYPE", "QTY", "PRICE", "TOTAL")
		fmt.Println(strings.Repeat("-", 66))
		for _, s := range r.Items {
			fmt.Printf("  %-5d %-16s %-10s %8s %10s %12s\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.ProductType,
				s.Quantity.String(), s.UnitPrice.StringFixed(0), s.TotalPrice.StringFixed(0))
		}
	}
	fmt.Println(strings.Repeat("-", 66))

	types := make([]string, 0, len(r.ByType))
	for t := range r.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-50s %12s\n", t, r.ByType[t].StringFixed(0))
	}
	fmt.Printf("  %-50s %12s\n", fmt.Sprintf("TOTAL (%d sales)", r.Count), r.Total.StringFixed(0))
	fmt.Println(strings.Repeat("=", 66))
}

func printDebts(debts []core.Debt) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Println("  DEBTS")
	fmt.Println(strings.Repeat("=", 78))
	if len(debts) == 0 {
		fmt.Println("  No debts found.")
		fmt.Println(strings.Repeat("=", 78))
		return
	}
	fmt.Printf("  %-5s %-20s %12s %12s %12s %-8s %s\n", "ID", "CUSTOMER", "AMOUNT", "PAID", "REMAINING", "STATUS", "DUE")
	fmt.Println(strings.Repeat("-", 78))
	for _, d := range debts {
		fmt.Printf("  %-5d %-20s %12s %12s %12s %-8s %s\n",
			d.ID, d.CustomerName, d.Amount.StringFixed(0), d.PaidAmount.StringFixed(0),
			d.RemainingAmount.StringFixed(0), d.Status, d.DueDate)
	}
	fmt.Println(strings.Repeat("=", 78))
}

func printDebt(d *core.Debt) {
	fmt.Printf("Debt #%d  %s  amount %s  paid %s  remaining %s  [%s]\n",
		d.ID, d.CustomerName, d.Amount.StringFixed(0), d.PaidAmount.StringFixed(0),
		d.RemainingAmount.StringFixed(0), d.Status)
}

func printDebtSummary(s *core.DebtSummary) {
	fmt.Printf("Debts: %d (%d open)  total %s  paid %s  remaining %s\n",
		s.Count, s.Open, s.Total.StringFixed(0), s.Paid.StringFixed(0), s.Remaining.StringFixed(0))
}

func printCustomers(customers []core.CustomerSummary) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("  CUSTOMERS")
	fmt.Println(strings.Repeat("=", 72))
	if len(customers) == 0 {
		fmt.Println("  No customers found.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-22s %6s %12s %12s %12s\n", "NAME", "SALES", "SALES TOTAL", "PENDING", "DEBT LEFT")
	fmt.Println(strings.Repeat("-", 72))
	for _, c := range customers {
		fmt.Printf("  %-22s %6d %12s %12s %12s\n",
			c.Name, c.SalesCount, c.SalesTotal.StringFixed(0), c.PendingSales.StringFixed(0), c.DebtRemaining.StringFixed(0))
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printProducts(products []core.Product) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 52))
	fmt.Println("  PRODUCTS")
	fmt.Println(strings.Repeat("=", 52))
	if len(products) == 0 {
		fmt.Println("  No products found.")
		fmt.Println(strings.Repeat("=", 52))
		return
	}
	fmt.Printf("  %-4s %-16s %-14s %12s\n", "ID", "NAME", "GRADE", "PRICE")
	fmt.Println(strings.Repeat("-", 52))
	for _, p := range products {
		fmt.Printf("  %-4d %-16s %-14s %12s\n", p.ID, p.Name, p.Grade, p.DefaultPrice.StringFixed(0))
	}
	fmt.Println(strings.Repeat("=", 52))
}

func printChatResult(res *app.ChatResult) {
	if res.Transcript != "" {
		fmt.Printf("[heard] %s\n", res.Transcript)
	}
	fmt.Println(res.Reply)
	if s := res.Sale; s != nil {
		fmt.Printf("Saved sale #%d: %s %s × %s = %s (%s, %s)\n",
			s.ID, s.ProductType, s.Quantity.String(), s.UnitPrice.StringFixed(0),
			s.TotalPrice.StringFixed(0), s.CustomerName, s.Status)
	}
	if d := res.Debt; d != nil {
		printDebt(d)
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("QAT LEDGER — COMMANDS")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println()
	fmt.Println("  REPORTS")
	fmt.Println("  /daily                           Today's sales")
	fmt.Println("  /monthly <year> <month>          Sales for a calendar month")
	fmt.Println()
	fmt.Println("  DEBTS")
	fmt.Println("  /debts [unpaid|partial|paid]     List debts")
	fmt.Println("  /new-debt                        Record a debt (interactive)")
	fmt.Println("  /pay <id>                        Settle a debt in full")
	fmt.Println("  /payment <id> <amount>           Record a partial payment")
	fmt.Println("  /remind <id>                     WhatsApp reminder link")
	fmt.Println()
	fmt.Println("  MASTER DATA")
	fmt.Println("  /customers                       Customers with totals")
	fmt.Println("  /products                        Product catalog")
	fmt.Println()
	fmt.Println("  ASSISTANT")
	fmt.Println("  /ask <question>                  Ask the AI assistant")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  /help                            Show this help")
	fmt.Println("  /exit                            Exit")
	fmt.Println()
	fmt.Println("  COMMAND MODE  (no / prefix)")
	fmt.Println("  Type a sale or debt in Arabic, for example:")
	fmt.Println("    بعت ربع شامي بي 5 الف")
	fmt.Println("    دين على أحمد 50 الف ريال")
	fmt.Println(strings.Repeat("=", 62))
}
