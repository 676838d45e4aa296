package app

import (
	"context"

	"qat-ledger/internal/core"
	"qat-ledger/internal/export"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateSale records a sale entered through a form.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*core.Sale, error)

	// GetSale returns a single sale.
	GetSale(ctx context.Context, id int) (*core.Sale, error)

	// ListSales returns sales matching the filter, newest first.
	ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error)

	// MarkSalePaid flips a pending sale to paid.
	MarkSalePaid(ctx context.Context, id int) (*core.Sale, error)

	// AnalyzeLedgerImage stores a ledger photo, asks the vision model for its rows
	// and saves them as sales in one batch. Either every row is saved or none.
	AnalyzeLedgerImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeResult, error)

	// CreateDebt records a new customer debt.
	CreateDebt(ctx context.Context, req CreateDebtRequest) (*core.Debt, error)

	// GetDebt returns a single debt.
	GetDebt(ctx context.Context, id int) (*core.Debt, error)

	// ListDebts returns debts, optionally filtered by status (empty = all).
	ListDebts(ctx context.Context, status core.DebtStatus) ([]core.Debt, error)

	// MarkDebtPaid settles the remaining amount of a debt.
	MarkDebtPaid(ctx context.Context, id int) (*core.Debt, error)

	// RecordDebtPayment applies a partial payment to a debt.
	RecordDebtPayment(ctx context.Context, req DebtPaymentRequest) (*core.Debt, error)

	// DebtReminder composes a WhatsApp reminder link for a debt.
	DebtReminder(ctx context.Context, id int) (*WhatsAppResult, error)

	// ListCustomers groups all sales and debts by customer.
	ListCustomers(ctx context.Context) ([]core.CustomerSummary, error)

	// CustomerStatement gathers everything recorded under one customer name.
	CustomerStatement(ctx context.Context, customerName string) (*export.Statement, error)

	// ListProducts returns the active product catalog.
	ListProducts(ctx context.Context) ([]core.Product, error)

	// CreateProduct adds a catalog entry.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// DailyReport returns today's sales report.
	DailyReport(ctx context.Context) (*core.SalesReport, error)

	// MonthlyReport returns the sales report for a calendar month.
	MonthlyReport(ctx context.Context, year, month int) (*core.SalesReport, error)

	// DebtSummary totals all debts.
	DebtSummary(ctx context.Context) (*core.DebtSummary, error)

	// ChatCommand runs one free-text sentence through the command extractor and
	// persists the resulting sale or debt when the sentence is complete.
	ChatCommand(ctx context.Context, text string, userID *int) (*ChatResult, error)

	// VoiceCommand transcribes speech and handles it like ChatCommand.
	VoiceCommand(ctx context.Context, audio []byte, filename string, userID *int) (*ChatResult, error)

	// Assist serves the assistant endpoint: text chat, image analysis and
	// structured commands.
	Assist(ctx context.Context, req AssistRequest) (*AssistResult, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// EnsureDefaultAdmin seeds the first admin account on an empty database.
	EnsureDefaultAdmin(ctx context.Context, email, displayName, password string) (*core.User, error)
}
