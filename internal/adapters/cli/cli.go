package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "chat", "c":
		if len(args) < 2 {
			log.Fatal("Usage: app chat \"<sentence>\"")
		}
		res, err := svc.ChatCommand(ctx, strings.Join(args[1:], " "), nil)
		if err != nil {
			log.Fatalf("Chat failed: %v", err)
		}
		fmt.Println(res.Reply)
		if res.Sale != nil || res.Debt != nil {
			printJSON(res)
		}

	case "daily", "d":
		rep, err := svc.DailyReport(ctx)
		if err != nil {
			log.Fatalf("Failed to build report: %v", err)
		}
		printJSON(rep)

	case "monthly", "m":
		if len(args) < 3 {
			log.Fatal("Usage: app monthly <year> <month>")
		}
		year, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid year: %s", args[1])
		}
		month, err := strconv.Atoi(args[2])
		if err != nil {
			log.Fatalf("Invalid month: %s", args[2])
		}
		rep, err := svc.MonthlyReport(ctx, year, month)
		if err != nil {
			log.Fatalf("Failed to build report: %v", err)
		}
		printJSON(rep)

	case "debts":
		var status core.DebtStatus
		if len(args) > 1 {
			status = core.DebtStatus(args[1])
		}
		debts, err := svc.ListDebts(ctx, status)
		if err != nil {
			log.Fatalf("Failed to list debts: %v", err)
		}
		printDebts(debts)

	case "pay":
		if len(args) < 2 {
			log.Fatal("Usage: app pay <debt-id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid debt id: %s", args[1])
		}
		d, err := svc.MarkDebtPaid(ctx, id)
		if err != nil {
			log.Fatalf("Failed to settle debt: %v", err)
		}
		fmt.Printf("Debt #%d for %s settled.\n", d.ID, d.CustomerName)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: chat, daily, monthly, debts, pay", args[0])
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printDebts(debts []core.Debt) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-5s %-20s %12s %12s  %s\n", "ID", "CUSTOMER", "AMOUNT", "REMAINING", "STATUS")
	fmt.Println(strings.Repeat("-", 62))
	for _, d := range debts {
		fmt.Printf("  %-5d %-20s %12s %12s  %s\n",
			d.ID, d.CustomerName, d.Amount.StringFixed(0), d.RemainingAmount.StringFixed(0), d.Status)
	}
	fmt.Println(strings.Repeat("=", 62))
}
