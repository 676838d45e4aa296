package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"

	"github.com/shopspring/decimal"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop.
// Slash commands are dispatched deterministically; any other line goes
// through the Arabic command extractor and is saved when complete.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	fmt.Println("Qat Ledger")
	fmt.Println("Type a sale or debt in Arabic, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	for {
		fmt.Print("\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if errors.Is(err, io.EOF) {
				return
			}
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(ctx, svc, reader, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Println("Goodbye!")
					return
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		res, err := svc.ChatCommand(ctx, input, nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printChatResult(res)
	}
}

func dispatchSlash(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "daily", "today":
		rep, err := svc.DailyReport(ctx)
		if err != nil {
			return err
		}
		printReport(rep)

	case "monthly", "month":
		if len(args) < 2 {
			fmt.Println("Usage: /monthly <year> <month>")
			return nil
		}
		year, err1 := strconv.Atoi(args[0])
		month, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			fmt.Println("Year and month must be numbers.")
			return nil
		}
		rep, err := svc.MonthlyReport(ctx, year, month)
		if err != nil {
			return err
		}
		printReport(rep)

	case "debts":
		var status core.DebtStatus
		if len(args) > 0 {
			status = core.DebtStatus(strings.ToLower(args[0]))
		}
		debts, err := svc.ListDebts(ctx, status)
		if err != nil {
			return err
		}
		printDebts(debts)
		if sum, err := svc.DebtSummary(ctx); err == nil {
			printDebtSummary(sum)
		}

	case "new-debt":
		handleNewDebt(ctx, reader, svc)

	case "pay":
		if len(args) < 1 {
			fmt.Println("Usage: /pay <debt-id>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Invalid debt id: %s\n", args[0])
			return nil
		}
		d, err := svc.MarkDebtPaid(ctx, id)
		if err != nil {
			return err
		}
		printDebt(d)

	case "payment":
		if len(args) < 2 {
			fmt.Println("Usage: /payment <debt-id> <amount>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Invalid debt id: %s\n", args[0])
			return nil
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil || !amount.IsPositive() {
			fmt.Printf("Invalid amount: %s\n", args[1])
			return nil
		}
		d, err := svc.RecordDebtPayment(ctx, app.DebtPaymentRequest{DebtID: id, Amount: amount})
		if err != nil {
			return err
		}
		printDebt(d)

	case "remind":
		if len(args) < 1 {
			fmt.Println("Usage: /remind <debt-id>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Invalid debt id: %s\n", args[0])
			return nil
		}
		res, err := svc.DebtReminder(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		fmt.Println(res.URL)

	case "customers":
		customers, err := svc.ListCustomers(ctx)
		if err != nil {
			return err
		}
		printCustomers(customers)

	case "products":
		products, err := svc.ListProducts(ctx)
		if err != nil {
			return err
		}
		printProducts(products)

	case "ask", "ai":
		if len(args) == 0 {
			fmt.Println("Usage: /ask <question>")
			return nil
		}
		fmt.Println("[AI] Thinking...")
		res, err := svc.Assist(ctx, app.AssistRequest{Mode: app.ModeText, Text: strings.Join(args, " ")})
		if err != nil {
			return errors.New(app.UserMessage(err))
		}
		fmt.Printf("\n[AI]: %s\n", res.Reply)

	case "help", "h":
		printHelp()

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}
