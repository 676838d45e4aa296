package repl

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"qat-ledger/internal/app"

	"github.com/shopspring/decimal"
)

func prompt(reader *bufio.Reader, label string) (string, bool) {
	fmt.Print(label)
	raw, err := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "cancel") {
		return "", false
	}
	return raw, err == nil || raw != ""
}

// handleNewDebt runs an interactive debt entry session.
func handleNewDebt(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	fmt.Println("Recording a new debt. Type 'cancel' at any prompt to abort.")

	var req app.CreateDebtRequest
	for req.CustomerName == "" {
		name, ok := prompt(reader, "  Customer name: ")
		if !ok {
			fmt.Println("Cancelled.")
			return
		}
		req.CustomerName = name
	}

	for {
		raw, ok := prompt(reader, "  Amount: ")
		if !ok {
			fmt.Println("Cancelled.")
			return
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil || !amount.IsPositive() {
			fmt.Println("  Invalid amount.")
			continue
		}
		req.Amount = amount
		break
	}

	phone, ok := prompt(reader, "  Phone (optional): ")
	if !ok {
		fmt.Println("Cancelled.")
		return
	}
	req.Phone = phone

	due, ok := prompt(reader, "  Due date (YYYY-MM-DD, optional): ")
	if !ok {
		fmt.Println("Cancelled.")
		return
	}
	req.DueDate = due

	notes, ok := prompt(reader, "  Notes (optional): ")
	if !ok {
		fmt.Println("Cancelled.")
		return
	}
	req.Notes = notes

	debt, err := svc.CreateDebt(ctx, req)
	if err != nil {
		fmt.Printf("[REPL] Error recording debt: %v\n", err)
		return
	}
	fmt.Print("\nDebt recorded. ")
	printDebt(debt)
	fmt.Printf("Use '/remind %d' for a WhatsApp reminder link.\n", debt.ID)
}
