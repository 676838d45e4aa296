package web

import (
	"net/http"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
)

// listDebts handles GET /api/debts?status=unpaid|partial|paid.
func (h *Handler) listDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.svc.ListDebts(r.Context(), core.DebtStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if debts == nil {
		debts = []core.Debt{}
	}
	writeJSON(w, debts)
}

// createDebt handles POST /api/debts.
func (h *Handler) createDebt(w http.ResponseWriter, r *http.Request) {
	var req app.CreateDebtRequest
	if !decodeJSON(w, r, &req) || !h.validateRequest(w, r, req) {
		return
	}
	req.CreatedBy = userIDFromContext(r.Context())
	debt, err := h.svc.CreateDebt(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, debt)
}

// getDebt handles GET /api/debts/{id}.
func (h *Handler) getDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, err := h.svc.GetDebt(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debt)
}

// markDebtPaid handles POST /api/debts/{id}/paid.
func (h *Handler) markDebtPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, err := h.svc.MarkDebtPaid(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debt)
}

// recordDebtPayment handles POST /api/debts/{id}/payments {amount}.
func (h *Handler) recordDebtPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.DebtPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DebtID = id
	debt, err := h.svc.RecordDebtPayment(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debt)
}

// debtWhatsApp handles GET /api/debts/{id}/whatsapp. With ?redirect=1 the
// client is sent straight to wa.me.
func (h *Handler) debtWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.DebtReminder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, res.URL, http.StatusFound)
		return
	}
	writeJSON(w, res)
}
