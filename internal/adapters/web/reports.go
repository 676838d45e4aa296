package web

import (
	"net/http"
	"strconv"
	"time"
)

// dailyReport handles GET /api/reports/daily.
func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.DailyReport(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// monthlyReport handles GET /api/reports/monthly?year=&month=. Missing
// parameters default to the current month in the business location.
func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.cfg.Location)
	year := now.Year()
	month := int(now.Month())

	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, r, "year must be a number", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil {
			writeError(w, r, "month must be a number", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	rep, err := h.svc.MonthlyReport(r.Context(), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// debtSummary handles GET /api/reports/debts.
func (h *Handler) debtSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.DebtSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sum)
}
