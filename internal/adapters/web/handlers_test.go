package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
	"qat-ledger/internal/export"

	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

// fakeService embeds the interface so only the methods a test needs are implemented;
// anything else panics, which Recoverer turns into a 500.
type fakeService struct {
	app.ApplicationService

	assistReq  app.AssistRequest
	assistRes  *app.AssistResult
	assistErr  error
	createdReq app.CreateDebtRequest
	paymentReq app.DebtPaymentRequest
	month      [2]int
	image      []byte
	chatUserID *int
}

func (f *fakeService) Assist(_ context.Context, req app.AssistRequest) (*app.AssistResult, error) {
	f.assistReq = req
	return f.assistRes, f.assistErr
}

func (f *fakeService) AuthenticateUser(_ context.Context, email, password string) (*app.UserSession, error) {
	if email == "owner@shop.local" && password == "secret" {
		return &app.UserSession{UserID: 1, Email: email, Role: core.RoleAdmin}, nil
	}
	return nil, app.ErrInvalidCredentials
}

func (f *fakeService) GetUser(_ context.Context, id int) (*app.UserResult, error) {
	return &app.UserResult{UserID: id, Email: "owner@shop.local", Role: core.RoleAdmin}, nil
}

func (f *fakeService) ChatCommand(_ context.Context, text string, userID *int) (*app.ChatResult, error) {
	f.chatUserID = userID
	return &app.ChatResult{Reply: "ok: " + text}, nil
}

func (f *fakeService) CreateDebt(_ context.Context, req app.CreateDebtRequest) (*core.Debt, error) {
	f.createdReq = req
	return &core.Debt{ID: 1, CustomerName: req.CustomerName, Amount: req.Amount, Status: core.DebtStatusUnpaid}, nil
}

func (f *fakeService) GetDebt(_ context.Context, id int) (*core.Debt, error) {
	return nil, core.ErrNotFound
}

func (f *fakeService) RecordDebtPayment(_ context.Context, req app.DebtPaymentRequest) (*core.Debt, error) {
	f.paymentReq = req
	return &core.Debt{ID: req.DebtID, Status: core.DebtStatusPartial}, nil
}

func (f *fakeService) MonthlyReport(_ context.Context, year, month int) (*core.SalesReport, error) {
	f.month = [2]int{year, month}
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidInput
	}
	return &core.SalesReport{Period: "monthly", Start: "2024-02-01", End: "2024-02-29"}, nil
}

func (f *fakeService) ListSales(_ context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	return []core.Sale{{ID: 1, ProductType: "شامي", Quantity: decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromInt(5000), TotalPrice: decimal.NewFromInt(5000),
		CustomerName: core.DefaultCustomerName, Status: core.SaleStatusPaid, Source: core.SaleSourceManual,
		CreatedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}}, nil
}

func (f *fakeService) AnalyzeLedgerImage(_ context.Context, req app.AnalyzeImageRequest) (*app.AnalyzeResult, error) {
	f.image = req.Image
	return &app.AnalyzeResult{ImageURL: "http://localhost/uploads/x.png", Saved: []core.Sale{}}, nil
}

func (f *fakeService) CustomerStatement(_ context.Context, name string) (*export.Statement, error) {
	if name != "علي" {
		return nil, core.ErrNotFound
	}
	return &export.Statement{ShopName: "محل", CustomerName: name, Currency: "ريال", GeneratedAt: time.Now()}, nil
}

func newTestHandler(svc app.ApplicationService) http.Handler {
	return NewHandler(svc, Config{AllowedOrigins: "*", JWTSecret: testSecret, TokenTTL: time.Hour})
}

func authHeader(t *testing.T) string {
	t.Helper()
	h := &Handler{cfg: Config{JWTSecret: testSecret, TokenTTL: time.Hour}}
	tok, err := h.signToken(&app.UserSession{UserID: 1, Email: "owner@shop.local", Role: core.RoleAdmin}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", authHeader(t))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}), http.MethodGet, "/api/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestAssistant_Methods(t *testing.T) {
	h := newTestHandler(&fakeService{})
	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
		{http.MethodDelete, http.StatusMethodNotAllowed},
		{http.MethodOptions, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := do(t, h, tt.method, "/api/assistant", "", false)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("CORS origin = %q, want *", got)
			}
		})
	}
}

func TestAssistant_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"ok", `{"mode":"command","command":"dailyReport"}`, nil, http.StatusOK},
		{"malformed json", `{"mode":`, nil, http.StatusBadRequest},
		{"validation gap", `{"mode":"command","command":"addDebt"}`, core.ErrInvalidInput, http.StatusBadRequest},
		{"not found", `{"mode":"command","command":"markDebtPaid","payload":{"id":9}}`, core.ErrNotFound, http.StatusBadRequest},
		{"upstream failure", `{"mode":"text","text":"hi"}`, errors.New("openai: 500"), http.StatusInternalServerError},
		{"not configured", `{"mode":"text","text":"hi"}`, app.ErrAssistantUnavailable, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{assistRes: &app.AssistResult{Success: true, Reply: "x"}, assistErr: tt.err}
			rec := do(t, newTestHandler(svc), http.MethodPost, "/api/assistant", tt.body, true)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.want, rec.Body)
			}
			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success != (tt.want == http.StatusOK) {
				t.Errorf("success = %v", body.Success)
			}
			if tt.want != http.StatusOK && body.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestAssistant_UserIDFromToken(t *testing.T) {
	svc := &fakeService{assistRes: &app.AssistResult{Success: true}}
	rec := do(t, newTestHandler(svc), http.MethodPost, "/api/assistant", `{"mode":"command","command":"dailyReport"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.assistReq.UserID == nil || *svc.assistReq.UserID != 1 {
		t.Errorf("user id not taken from token: %v", svc.assistReq.UserID)
	}
}

func TestAssistant_TokenOverridesBodyUserID(t *testing.T) {
	svc := &fakeService{assistRes: &app.AssistResult{Success: true}}
	rec := do(t, newTestHandler(svc), http.MethodPost, "/api/assistant",
		`{"mode":"command","command":"dailyReport","userId":42}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.assistReq.UserID == nil || *svc.assistReq.UserID != 1 {
		t.Errorf("user id = %v, want 1 from token", svc.assistReq.UserID)
	}
}

func TestAssistant_WritesRequireToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"command", `{"mode":"command","command":"markDebtPaid","payload":{"id":7}}`, http.StatusUnauthorized},
		{"command with body user", `{"mode":"command","command":"addDebt","userId":1}`, http.StatusUnauthorized},
		{"image", `{"mode":"image","imageBase64":"aGVsbG8="}`, http.StatusUnauthorized},
		{"text stays public", `{"mode":"text","text":"كم مبيعات اليوم"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{assistRes: &app.AssistResult{Success: true}}
			rec := do(t, newTestHandler(svc), http.MethodPost, "/api/assistant", tt.body, false)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.want, rec.Body)
			}
			if tt.want == http.StatusUnauthorized && svc.assistReq.Mode != "" {
				t.Errorf("service reached for anonymous %s", svc.assistReq.Mode)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	h := newTestHandler(&fakeService{})

	if rec := do(t, h, http.MethodGet, "/api/auth/me", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"owner@shop.local","password":"nope"}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"x"}`, false); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid email: %d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"owner@shop.local","password":"secret"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("auth cookie not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Errorf("me with cookie: %d", me.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: %d", bad.Code)
	}
}

func TestChat(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)
	if rec := do(t, h, http.MethodPost, "/api/chat", `{"text":""}`, true); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty text: %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/chat", `{"text":"مساعدة"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.chatUserID == nil || *svc.chatUserID != 1 {
		t.Error("chat should carry the signed-in user")
	}
}

func TestDebts(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/api/debts", `{"customer_name":"أحمد","amount":"50000","due_date":"2026-11-01"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	if !svc.createdReq.Amount.Equal(decimal.NewFromInt(50000)) || svc.createdReq.CreatedBy == nil {
		t.Errorf("request = %+v", svc.createdReq)
	}

	if rec := do(t, h, http.MethodPost, "/api/debts", `{"customer_name":"أحمد","amount":"5","due_date":"tomorrow"}`, true); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad due date: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/debts/4/payments", `{"amount":"1000"}`, true)
	if rec.Code != http.StatusOK || svc.paymentReq.DebtID != 4 {
		t.Errorf("payment: %d %+v", rec.Code, svc.paymentReq)
	}

	if rec := do(t, h, http.MethodGet, "/api/debts/abc", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/debts/77", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("missing debt: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/debts", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list: %d", rec.Code)
	}
}

func TestMonthlyReport(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodGet, "/api/reports/monthly?year=2024&month=2", "", true)
	if rec.Code != http.StatusOK || svc.month != [2]int{2024, 2} {
		t.Fatalf("status = %d, args %v", rec.Code, svc.month)
	}
	if rec := do(t, h, http.MethodGet, "/api/reports/monthly?year=2024&month=13", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("month 13: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/reports/monthly?year=x", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("bad year: %d", rec.Code)
	}
}

func TestExportSalesCSV(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}), http.MethodGet, "/api/sales/export.csv?from=2026-10-01&to=2026-10-31", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "شامي") {
		t.Error("csv body missing the sale row")
	}

	if rec := do(t, newTestHandler(&fakeService{}), http.MethodGet, "/api/sales/export.csv?from=17-10-2026", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("bad from date: %d", rec.Code)
	}
}

func TestCustomerStatement(t *testing.T) {
	h := newTestHandler(&fakeService{})
	rec := do(t, h, http.MethodGet, "/api/customers/%D8%B9%D9%84%D9%8A/statement.doc", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/msword") {
		t.Errorf("content type = %q", ct)
	}
	if rec := do(t, h, http.MethodGet, "/api/customers/nobody/statement.doc", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer: %d", rec.Code)
	}
}

func TestAnalyzeSalesImage(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "page.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	_ = mw.WriteField("text", "الصفحة الأولى")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sales/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if len(svc.image) == 0 {
		t.Error("image bytes not passed to the service")
	}
}
