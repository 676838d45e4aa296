package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qat-ledger/internal/ai"
	"qat-ledger/internal/core"
	"qat-ledger/internal/export"
	"qat-ledger/internal/storage"
	"qat-ledger/internal/whatsapp"

	"go.uber.org/zap"
)

// Options carries the shop-level settings the app layer needs.
type Options struct {
	ShopName    string
	Currency    string
	CountryCode string
	Location    *time.Location
	Logger      *zap.Logger
}

type appService struct {
	sales     core.SaleService
	debts     core.DebtService
	products  core.ProductService
	users     core.UserService
	reports   core.ReportingService
	extractor *core.Extractor
	agent     ai.AgentService // nil when no API key is configured
	store     storage.Store
	opts      Options
	log       *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	sales core.SaleService,
	debts core.DebtService,
	products core.ProductService,
	users core.UserService,
	reports core.ReportingService,
	agent ai.AgentService,
	store storage.Store,
	opts Options,
) ApplicationService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Currency == "" {
		opts.Currency = "ريال"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &appService{
		sales:     sales,
		debts:     debts,
		products:  products,
		users:     users,
		reports:   reports,
		extractor: core.NewExtractor(),
		agent:     agent,
		store:     store,
		opts:      opts,
		log:       opts.Logger,
	}
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*core.Sale, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.sales.Create(ctx, core.SaleInput{
		ProductType:  req.ProductType,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		TotalPrice:   req.TotalPrice,
		CustomerName: req.CustomerName,
		Status:       core.SaleStatus(req.Status),
		Source:       core.SaleSourceManual,
		Notes:        req.Notes,
		CreatedBy:    req.CreatedBy,
	})
}

func (s *appService) GetSale(ctx context.Context, id int) (*core.Sale, error) {
	return s.sales.Get(ctx, id)
}

func (s *appService) ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	return s.sales.List(ctx, filter)
}

func (s *appService) MarkSalePaid(ctx context.Context, id int) (*core.Sale, error) {
	return s.sales.MarkPaid(ctx, id)
}

// AnalyzeLedgerImage runs upload, analysis and persistence in sequence. When
// analysis or persistence fails the uploaded image is removed again.
func (s *appService) AnalyzeLedgerImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeResult, error) {
	if s.agent == nil {
		return nil, ErrAssistantUnavailable
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", core.ErrInvalidInput)
	}

	obj, err := s.store.Put(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	saved, analysis, err := s.analyzeStored(ctx, obj, req)
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			s.log.Warn("failed to remove image after failed analysis", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, err
	}

	s.log.Info("ledger image analyzed",
		zap.String("image", obj.Key),
		zap.Int("items", len(analysis.Items)),
		zap.Int("saved", len(saved)))

	return &AnalyzeResult{ImageURL: obj.URL, Extracted: analysis, Saved: saved}, nil
}

func (s *appService) analyzeStored(ctx context.Context, obj *storage.Object, req AnalyzeImageRequest) ([]core.Sale, *ai.LedgerAnalysis, error) {
	analysis, err := s.agent.AnalyzeLedgerImage(ctx, req.Image, obj.MimeType, req.Instruction)
	if err != nil {
		return nil, nil, err
	}

	inputs := make([]core.SaleInput, 0, len(analysis.Items))
	for _, it := range analysis.Items {
		inputs = append(inputs, core.SaleInput{
			ProductType:  it.Type,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.Total,
			CustomerName: it.CustomerName,
			Status:       core.SaleStatusPaid,
			Source:       core.SaleSourceImage,
			ImageURL:     obj.URL,
			Notes:        it.Note,
			CreatedBy:    req.CreatedBy,
		})
	}

	saved, err := s.sales.CreateBatch(ctx, inputs)
	if err != nil {
		return nil, nil, err
	}
	if saved == nil {
		saved = []core.Sale{}
	}
	return saved, analysis, nil
}

// ── Debts ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateDebt(ctx context.Context, req CreateDebtRequest) (*core.Debt, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.debts.Create(ctx, core.DebtInput{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Amount:       req.Amount,
		DueDate:      req.DueDate,
		Notes:        req.Notes,
		CreatedBy:    req.CreatedBy,
	})
}

func (s *appService) GetDebt(ctx context.Context, id int) (*core.Debt, error) {
	return s.debts.Get(ctx, id)
}

func (s *appService) ListDebts(ctx context.Context, status core.DebtStatus) ([]core.Debt, error) {
	switch status {
	case "", core.DebtStatusUnpaid, core.DebtStatusPartial, core.DebtStatusPaid:
	default:
		return nil, fmt.Errorf("%w: unknown debt status %q", core.ErrInvalidInput, status)
	}
	return s.debts.List(ctx, status)
}

func (s *appService) MarkDebtPaid(ctx context.Context, id int) (*core.Debt, error) {
	d, err := s.debts.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("debt settled", zap.Int("debt_id", d.ID), zap.String("customer", d.CustomerName))
	return d, nil
}

func (s *appService) RecordDebtPayment(ctx context.Context, req DebtPaymentRequest) (*core.Debt, error) {
	return s.debts.RecordPayment(ctx, req.DebtID, req.Amount)
}

func (s *appService) DebtReminder(ctx context.Context, id int) (*WhatsAppResult, error) {
	d, err := s.debts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	msg := whatsapp.DebtReminderMessage(*d, s.opts.Currency)
	return &WhatsAppResult{
		Phone:   whatsapp.NormalizePhone(d.Phone, s.opts.CountryCode),
		Message: msg,
		URL:     whatsapp.Link(d.Phone, msg, s.opts.CountryCode),
	}, nil
}

// ── Customers & products ──────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context) ([]core.CustomerSummary, error) {
	return s.reports.Customers(ctx)
}

func (s *appService) CustomerStatement(ctx context.Context, customerName string) (*export.Statement, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", core.ErrInvalidInput)
	}

	sales, err := s.sales.List(ctx, core.SaleFilter{Customer: customerName})
	if err != nil {
		return nil, err
	}
	debts, err := s.debts.ByCustomer(ctx, customerName)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 && len(debts) == 0 {
		return nil, fmt.Errorf("customer %q: %w", customerName, core.ErrNotFound)
	}

	return &export.Statement{
		ShopName:     s.opts.ShopName,
		CustomerName: customerName,
		Currency:     s.opts.Currency,
		Location:     s.opts.Location,
		GeneratedAt:  time.Now().In(s.opts.Location),
		Sales:        sales,
		Debts:        debts,
	}, nil
}

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.products.List(ctx)
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, req.Name, req.Grade, req.DefaultPrice)
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) DailyReport(ctx context.Context) (*core.SalesReport, error) {
	return s.reports.Daily(ctx)
}

func (s *appService) MonthlyReport(ctx context.Context, year, month int) (*core.SalesReport, error) {
	return s.reports.Monthly(ctx, year, month)
}

func (s *appService) DebtSummary(ctx context.Context) (*core.DebtSummary, error) {
	return s.reports.Debts(ctx)
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &UserSession{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}, nil
}

func (s *appService) EnsureDefaultAdmin(ctx context.Context, email, displayName, password string) (*core.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	return s.users.EnsureDefaultAdmin(ctx, email, displayName, password)
}
