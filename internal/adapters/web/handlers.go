package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"qat-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Config carries the HTTP-layer settings.
type Config struct {
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
	SecureCookies  bool
	// UploadDir is served read-only under /uploads/. Empty disables the route.
	UploadDir      string
	MaxUploadBytes int64
	Location       *time.Location
	Logger         *zap.Logger
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	cfg    Config
	log    *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, cfg Config) http.Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	h := &Handler{svc: svc, cfg: cfg, log: cfg.Logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log))
	r.Use(Recoverer(h.log))
	r.Use(CORS(cfg.AllowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(1<<20)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Assistant (text is public; command and image modes need a token) ─────
	// Image payloads arrive base64-encoded, hence the larger limit.
	r.With(h.OptionalAuth, RequestBodyLimit(cfg.MaxUploadBytes*2)).HandleFunc("/api/assistant", h.assistant)

	// ── Stored ledger images ──────────────────────────────────────────────────
	if cfg.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Multipart uploads manage their own body limit.
		r.Post("/api/sales/analyze", h.analyzeSalesImage)
		r.Post("/api/chat/voice", h.chatVoice)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			r.Post("/api/chat", h.chatMessage)

			// ── Sales ─────────────────────────────────────────────────────────
			r.Get("/api/sales", h.listSales)
			r.Post("/api/sales", h.createSale)
			r.Get("/api/sales/export.csv", h.exportSalesCSV)
			r.Get("/api/sales/{id}", h.getSale)
			r.Post("/api/sales/{id}/paid", h.markSalePaid)

			// ── Debts ─────────────────────────────────────────────────────────
			r.Get("/api/debts", h.listDebts)
			r.Post("/api/debts", h.createDebt)
			r.Get("/api/debts/{id}", h.getDebt)
			r.Post("/api/debts/{id}/paid", h.markDebtPaid)
			r.Post("/api/debts/{id}/payments", h.recordDebtPayment)
			r.Get("/api/debts/{id}/whatsapp", h.debtWhatsApp)

			// ── Customers & products ──────────────────────────────────────────
			r.Get("/api/customers", h.listCustomers)
			r.Get("/api/customers/{name}/statement.doc", h.customerStatement)
			r.Get("/api/products", h.listProducts)
			r.Post("/api/products", h.createProduct)

			// ── Reports ───────────────────────────────────────────────────────
			r.Get("/api/reports/daily", h.dailyReport)
			r.Get("/api/reports/monthly", h.monthlyReport)
			r.Get("/api/reports/debts", h.debtSummary)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string    `json:"status"`
		Time   time.Time `json:"time"`
	}
	writeJSON(w, response{Status: "ok", Time: time.Now().In(h.cfg.Location)})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// validateRequest runs the struct tags of v and writes a 422 listing the
// failing fields.
func (h *Handler) validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	err := app.Validate(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg := "invalid fields:"
		for _, fe := range verrs {
			msg += fmt.Sprintf(" %s(%s)", fe.Field(), fe.Tag())
		}
		writeError(w, r, msg, "VALIDATION_FAILED", http.StatusUnprocessableEntity)
		return false
	}
	writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	return false
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
