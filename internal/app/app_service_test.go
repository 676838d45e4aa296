package app_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"qat-ledger/internal/ai"
	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
	"qat-ledger/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeSales struct {
	mu       sync.Mutex
	created  []core.SaleInput
	batchErr error
	list     []core.Sale
}

func (f *fakeSales) Create(_ context.Context, in core.SaleInput) (*core.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &core.Sale{ID: len(f.created), ProductType: in.ProductType, Quantity: in.Quantity,
		UnitPrice: in.UnitPrice, TotalPrice: in.TotalPrice, CustomerName: in.CustomerName,
		Status: in.Status, Source: in.Source, ImageURL: in.ImageURL}, nil
}

func (f *fakeSales) CreateBatch(ctx context.Context, inputs []core.SaleInput) ([]core.Sale, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([]core.Sale, 0, len(inputs))
	for _, in := range inputs {
		s, _ := f.Create(ctx, in)
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSales) Get(_ context.Context, id int) (*core.Sale, error) {
	return nil, core.ErrNotFound
}

func (f *fakeSales) List(_ context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	var out []core.Sale
	for _, s := range f.list {
		if filter.Customer == "" || s.CustomerName == filter.Customer {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) MarkPaid(_ context.Context, id int) (*core.Sale, error) {
	return nil, core.ErrNotFound
}

type fakeDebts struct {
	created []core.DebtInput
	byID    map[int]*core.Debt
	paid    []int
}

func (f *fakeDebts) Create(_ context.Context, in core.DebtInput) (*core.Debt, error) {
	f.created = append(f.created, in)
	return &core.Debt{ID: len(f.created), CustomerName: in.CustomerName, Amount: in.Amount,
		Status: core.DebtStatusUnpaid}, nil
}

func (f *fakeDebts) Get(_ context.Context, id int) (*core.Debt, error) {
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeDebts) List(_ context.Context, _ core.DebtStatus) ([]core.Debt, error) {
	return nil, nil
}

func (f *fakeDebts) ByCustomer(_ context.Context, name string) ([]core.Debt, error) {
	var out []core.Debt
	for _, d := range f.byID {
		if d.CustomerName == name {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDebts) MarkPaid(ctx context.Context, id int) (*core.Debt, error) {
	d, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f.paid = append(f.paid, id)
	d.Status = core.DebtStatusPaid
	return d, nil
}

func (f *fakeDebts) RecordPayment(ctx context.Context, id int, amount decimal.Decimal) (*core.Debt, error) {
	return f.Get(ctx, id)
}

type fakeProducts struct{}

func (fakeProducts) List(context.Context) ([]core.Product, error) {
	return []core.Product{{ID: 1, Name: "شامي", DefaultPrice: decimal.NewFromInt(5000)}}, nil
}

func (fakeProducts) Create(_ context.Context, name, grade string, price decimal.Decimal) (*core.Product, error) {
	return &core.Product{ID: 2, Name: name, Grade: grade, DefaultPrice: price}, nil
}

type fakeUsers struct {
	user *core.User
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*core.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, core.ErrNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id int) (*core.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, core.ErrNotFound
}

func (fakeUsers) Count(context.Context) (int, error) { return 0, nil }

func (fakeUsers) Create(context.Context, string, string, string, string) (*core.User, error) {
	return nil, errors.New("not implemented")
}

func (fakeUsers) EnsureDefaultAdmin(context.Context, string, string, string) (*core.User, error) {
	return nil, nil
}

type fakeReports struct {
	month [2]int
}

func (f *fakeReports) Daily(context.Context) (*core.SalesReport, error) {
	return &core.SalesReport{Period: "daily", Start: "2026-10-17", End: "2026-10-17",
		Count: 3, Total: decimal.NewFromInt(27000)}, nil
}

func (f *fakeReports) Monthly(_ context.Context, year, month int) (*core.SalesReport, error) {
	f.month = [2]int{year, month}
	return &core.SalesReport{Period: "monthly"}, nil
}

func (f *fakeReports) Debts(context.Context) (*core.DebtSummary, error) {
	return &core.DebtSummary{Count: 2, Open: 1, Remaining: decimal.NewFromInt(50000)}, nil
}

func (f *fakeReports) Customers(context.Context) ([]core.CustomerSummary, error) {
	return nil, nil
}

type fakeAgent struct {
	analysis   *ai.LedgerAnalysis
	err        error
	transcript string
	gotMIME    string
	gotContext string
}

func (f *fakeAgent) Chat(_ context.Context, message, shopContext string, tools *ai.ToolRegistry) (string, error) {
	f.gotContext = shopContext
	return "رد: " + message, f.err
}

func (f *fakeAgent) AnalyzeLedgerImage(_ context.Context, _ []byte, mimeType, _ string) (*ai.LedgerAnalysis, error) {
	f.gotMIME = mimeType
	return f.analysis, f.err
}

func (f *fakeAgent) Transcribe(context.Context, []byte, string) (string, error) {
	return f.transcript, f.err
}

type fakeStore struct {
	put     int
	deleted []string
}

func (f *fakeStore) Put(_ context.Context, data []byte) (*storage.Object, error) {
	mime, err := storage.DetectImageType(data)
	if err != nil {
		return nil, err
	}
	f.put++
	return &storage.Object{Key: "sales/a.png", URL: "http://localhost/uploads/sales/a.png", MimeType: mime, Size: int64(len(data))}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string { return "http://localhost/uploads/" + key }

type fixture struct {
	sales   *fakeSales
	debts   *fakeDebts
	reports *fakeReports
	agent   *fakeAgent
	store   *fakeStore
	users   fakeUsers
	svc     app.ApplicationService
}

func newFixture(t *testing.T, withAgent bool) *fixture {
	t.Helper()
	f := &fixture{
		sales:   &fakeSales{},
		debts:   &fakeDebts{byID: map[int]*core.Debt{}},
		reports: &fakeReports{},
		agent:   &fakeAgent{},
		store:   &fakeStore{},
	}
	var agent ai.AgentService
	if withAgent {
		agent = f.agent
	}
	f.svc = app.NewAppService(f.sales, f.debts, fakeProducts{}, f.users, f.reports, agent, f.store,
		app.Options{ShopName: "محل الاختبار", Currency: "ريال", Location: time.UTC})
	return f
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// ── chat ──────────────────────────────────────────────────────────────────────

func TestChatCommand_SavesCompleteSale(t *testing.T) {
	f := newFixture(t, false)
	uid := 7
	res, err := f.svc.ChatCommand(context.Background(), "بعت ربع شامي بي 5 الف", &uid)
	if err != nil {
		t.Fatalf("ChatCommand: %v", err)
	}
	if res.Sale == nil {
		t.Fatalf("expected a saved sale, reply %q", res.Reply)
	}
	if len(f.sales.created) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(f.sales.created))
	}
	in := f.sales.created[0]
	if in.Source != core.SaleSourceAssistant {
		t.Errorf("source = %s, want assistant", in.Source)
	}
	if in.CreatedBy == nil || *in.CreatedBy != uid {
		t.Errorf("created_by not propagated")
	}
	if !in.Quantity.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("quantity = %s", in.Quantity)
	}
	if !in.UnitPrice.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("unit price = %s", in.UnitPrice)
	}
}

func TestChatCommand_IncompleteSaleIsNotSaved(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.svc.ChatCommand(context.Background(), "بعت ربع بي 5 الف", nil)
	if err != nil {
		t.Fatalf("ChatCommand: %v", err)
	}
	if res.Sale != nil || len(f.sales.created) != 0 {
		t.Fatal("incomplete sale must not be saved")
	}
	if !strings.Contains(res.Reply, core.MissingProductType) {
		t.Errorf("reply should name the missing product type: %q", res.Reply)
	}
}

func TestChatCommand_SavesDebt(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.svc.ChatCommand(context.Background(), "دين على أحمد 50 الف ريال", nil)
	if err != nil {
		t.Fatalf("ChatCommand: %v", err)
	}
	if res.Debt == nil || len(f.debts.created) != 1 {
		t.Fatalf("expected one saved debt, got %d", len(f.debts.created))
	}
	if got := f.debts.created[0]; got.CustomerName != "أحمد" || !got.Amount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("debt = %+v", got)
	}
}

func TestChatCommand_StatsReplyCarriesNumbers(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.svc.ChatCommand(context.Background(), "احصائيات", nil)
	if err != nil {
		t.Fatalf("ChatCommand: %v", err)
	}
	if !strings.Contains(res.Reply, "27000") || !strings.Contains(res.Reply, "50000") {
		t.Errorf("stats reply missing live totals: %q", res.Reply)
	}
}

func TestChatCommand_EmptyText(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.ChatCommand(context.Background(), "   ", nil)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVoiceCommand(t *testing.T) {
	f := newFixture(t, true)
	f.agent.transcript = "دين على أحمد 50 الف ريال"
	res, err := f.svc.VoiceCommand(context.Background(), []byte("audio"), "note.webm", nil)
	if err != nil {
		t.Fatalf("VoiceCommand: %v", err)
	}
	if res.Transcript != f.agent.transcript || res.Debt == nil {
		t.Errorf("unexpected result %+v", res)
	}

	noAgent := newFixture(t, false)
	if _, err := noAgent.svc.VoiceCommand(context.Background(), []byte("audio"), "note.webm", nil); !errors.Is(err, app.ErrAssistantUnavailable) {
		t.Errorf("expected ErrAssistantUnavailable, got %v", err)
	}
}

// ── assistant ─────────────────────────────────────────────────────────────────

func TestAssist_Text(t *testing.T) {
	f := newFixture(t, true)
	res, err := f.svc.Assist(context.Background(), app.AssistRequest{Mode: app.ModeText, Text: "كم بعت اليوم؟"})
	if err != nil {
		t.Fatalf("Assist: %v", err)
	}
	if !res.Success || res.Reply == "" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(f.agent.gotContext, "محل الاختبار") {
		t.Errorf("shop context missing shop name: %q", f.agent.gotContext)
	}
}

func TestAssist_TextWithoutAgent(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.Assist(context.Background(), app.AssistRequest{Mode: app.ModeText, Text: "مرحبا"})
	if !errors.Is(err, app.ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
	if app.IsClientError(err) {
		t.Error("missing configuration is not a client error")
	}
}

func TestAssist_Validation(t *testing.T) {
	f := newFixture(t, true)
	tests := []struct {
		name string
		req  app.AssistRequest
	}{
		{"no mode", app.AssistRequest{}},
		{"unknown mode", app.AssistRequest{Mode: "video"}},
		{"empty text", app.AssistRequest{Mode: app.ModeText}},
		{"image missing", app.AssistRequest{Mode: app.ModeImage}},
		{"image not base64", app.AssistRequest{Mode: app.ModeImage, ImageBase64: "%%%"}},
		{"no command", app.AssistRequest{Mode: app.ModeCommand}},
		{"unknown command", app.AssistRequest{Mode: app.ModeCommand, Command: "deleteAll"}},
		{"addDebt without customer", app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandAddDebt,
			Payload: json.RawMessage(`{"amount":"100"}`)}},
		{"markDebtPaid without id", app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMarkDebtPaid}},
		{"monthlyReport bad month", app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMonthlyReport,
			Payload: json.RawMessage(`{"year":2024,"month":13}`)}},
		{"payload not json", app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMarkDebtPaid,
			Payload: json.RawMessage(`[1]`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assist(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !app.IsClientError(err) {
				t.Errorf("expected a client error, got %v", err)
			}
		})
	}
}

func TestAssist_Commands(t *testing.T) {
	f := newFixture(t, true)
	f.debts.byID[4] = &core.Debt{ID: 4, CustomerName: "علي", Amount: decimal.NewFromInt(3000), Status: core.DebtStatusUnpaid}
	ctx := context.Background()

	res, err := f.svc.Assist(ctx, app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandAddDebt,
		Payload: json.RawMessage(`{"customer":"سالم","amount":"12000","note":"قات","due_date":"2026-11-01"}`)})
	if err != nil {
		t.Fatalf("addDebt: %v", err)
	}
	if d, ok := res.Result.(*core.Debt); !ok || d.CustomerName != "سالم" {
		t.Errorf("addDebt result = %#v", res.Result)
	}
	if got := f.debts.created[0]; got.DueDate != "2026-11-01" || got.Notes != "قات" {
		t.Errorf("addDebt input = %+v", got)
	}

	if _, err := f.svc.Assist(ctx, app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMarkDebtPaid,
		Payload: json.RawMessage(`{"id":4}`)}); err != nil {
		t.Fatalf("markDebtPaid: %v", err)
	}
	if len(f.debts.paid) != 1 || f.debts.paid[0] != 4 {
		t.Errorf("debt 4 not settled: %v", f.debts.paid)
	}

	_, err = f.svc.Assist(ctx, app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMarkDebtPaid,
		Payload: json.RawMessage(`{"id":99}`)})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := f.svc.Assist(ctx, app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandMonthlyReport,
		Payload: json.RawMessage(`{"year":2024,"month":2}`)}); err != nil {
		t.Fatalf("monthlyReport: %v", err)
	}
	if f.reports.month != [2]int{2024, 2} {
		t.Errorf("monthly report args = %v", f.reports.month)
	}

	res, err = f.svc.Assist(ctx, app.AssistRequest{Mode: app.ModeCommand, Command: app.CommandDailyReport})
	if err != nil {
		t.Fatalf("dailyReport: %v", err)
	}
	if rep, ok := res.Result.(*core.SalesReport); !ok || rep.Count != 3 {
		t.Errorf("dailyReport result = %#v", res.Result)
	}
}

func TestAssist_ImageSavesBatch(t *testing.T) {
	f := newFixture(t, true)
	f.agent.analysis = &ai.LedgerAnalysis{Items: []ai.LedgerItem{
		{Type: "شامي", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5000), Total: decimal.NewFromInt(5000)},
		{Type: "صبري", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(3000), Total: decimal.NewFromInt(6000), CustomerName: "علي"},
	}}
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	res, err := f.svc.Assist(context.Background(), app.AssistRequest{Mode: app.ModeImage, ImageBase64: encoded})
	if err != nil {
		t.Fatalf("Assist image: %v", err)
	}
	if len(res.Saved) != 2 || res.Extracted == nil {
		t.Fatalf("expected 2 saved rows, got %+v", res)
	}
	if f.agent.gotMIME != "image/png" {
		t.Errorf("mime = %q", f.agent.gotMIME)
	}
	for _, s := range res.Saved {
		if s.Source != core.SaleSourceImage || s.ImageURL == "" {
			t.Errorf("saved row missing image provenance: %+v", s)
		}
	}
	if len(f.store.deleted) != 0 {
		t.Error("image must be kept after a successful analysis")
	}
}

func TestAnalyzeLedgerImage_RemovesImageOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		agentErr error
		batchErr error
	}{
		{"analysis fails", ai.ErrUnreadableAnalysis, nil},
		{"batch fails", nil, errors.New("insert failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.agent.err = tt.agentErr
			f.agent.analysis = &ai.LedgerAnalysis{Items: []ai.LedgerItem{{Type: "شامي", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}}
			f.sales.batchErr = tt.batchErr

			_, err := f.svc.AnalyzeLedgerImage(context.Background(), app.AnalyzeImageRequest{Image: pngHeader})
			if err == nil {
				t.Fatal("expected an error")
			}
			if len(f.store.deleted) != 1 || f.store.deleted[0] != "sales/a.png" {
				t.Errorf("stored image not removed: %v", f.store.deleted)
			}
		})
	}
}

func TestAnalyzeLedgerImage_RejectsNonImage(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.AnalyzeLedgerImage(context.Background(), app.AnalyzeImageRequest{Image: []byte("plain text")})
	if !errors.Is(err, storage.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if f.store.put != 0 {
		t.Error("nothing should be stored")
	}
}

// ── debts, customers, users ───────────────────────────────────────────────────

func TestDebtReminder(t *testing.T) {
	f := newFixture(t, false)
	f.debts.byID[1] = &core.Debt{ID: 1, CustomerName: "أحمد", Phone: "0777123456",
		Amount: decimal.NewFromInt(5000), RemainingAmount: decimal.NewFromInt(5000), Status: core.DebtStatusUnpaid}

	res, err := f.svc.DebtReminder(context.Background(), 1)
	if err != nil {
		t.Fatalf("DebtReminder: %v", err)
	}
	if res.Phone != "967777123456" {
		t.Errorf("phone = %q", res.Phone)
	}
	if !strings.HasPrefix(res.URL, "https://wa.me/967777123456?text=") {
		t.Errorf("url = %q", res.URL)
	}
	if !strings.Contains(res.Message, "أحمد") {
		t.Errorf("message should name the customer: %q", res.Message)
	}
}

func TestListDebts_UnknownStatus(t *testing.T) {
	f := newFixture(t, false)
	if _, err := f.svc.ListDebts(context.Background(), "overdue"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCustomerStatement(t *testing.T) {
	f := newFixture(t, false)
	f.sales.list = []core.Sale{{ID: 1, CustomerName: "علي", TotalPrice: decimal.NewFromInt(5000)}}

	st, err := f.svc.CustomerStatement(context.Background(), " علي ")
	if err != nil {
		t.Fatalf("CustomerStatement: %v", err)
	}
	if st.CustomerName != "علي" || len(st.Sales) != 1 || st.ShopName != "محل الاختبار" {
		t.Errorf("statement = %+v", st)
	}

	if _, err := f.svc.CustomerStatement(context.Background(), "مجهول"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDebt_Validation(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.CreateDebt(context.Background(), app.CreateDebtRequest{
		CustomerName: "علي", Amount: decimal.NewFromInt(10), DueDate: "17/10/2026",
	})
	if err == nil || !app.IsClientError(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, false)
	f.users = fakeUsers{user: &core.User{ID: 1, Email: "owner@shop.local", PasswordHash: string(hash), Role: core.RoleAdmin}}
	f.svc = app.NewAppService(f.sales, f.debts, fakeProducts{}, f.users, f.reports, nil, f.store, app.Options{})

	sess, err := f.svc.AuthenticateUser(context.Background(), "owner@shop.local", "secret")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if sess.UserID != 1 || sess.Role != core.RoleAdmin {
		t.Errorf("session = %+v", sess)
	}

	for _, c := range [][2]string{{"owner@shop.local", "wrong"}, {"nobody@shop.local", "secret"}} {
		if _, err := f.svc.AuthenticateUser(context.Background(), c[0], c[1]); !errors.Is(err, app.ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", c[0], err)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{app.ErrAssistantUnavailable, "OpenAI"},
		{core.ErrNotFound, "غير موجود"},
		{storage.ErrTooLarge, "حجم"},
		{errors.New("boom"), "خطأ في الخادم"},
	}
	for _, tt := range tests {
		if got := app.UserMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("UserMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}
