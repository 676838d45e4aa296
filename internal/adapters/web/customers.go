package web

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
	"qat-ledger/internal/export"

	"github.com/go-chi/chi/v5"
)

// listCustomers handles GET /api/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if customers == nil {
		customers = []core.CustomerSummary{}
	}
	writeJSON(w, customers)
}

// customerStatement handles GET /api/customers/{name}/statement.doc and
// serves an HTML document that word processors open as .doc.
func (h *Handler) customerStatement(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, "invalid customer name", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	st, err := h.svc.CustomerStatement(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.RenderStatementDoc(&buf, *st); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	filename := "statement-" + strings.ReplaceAll(st.CustomerName, " ", "_") + ".doc"
	w.Header().Set("Content-Type", "application/msword; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	_, _ = w.Write(buf.Bytes())
}

// listProducts handles GET /api/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []core.Product{}
	}
	writeJSON(w, products)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !decodeJSON(w, r, &req) || !h.validateRequest(w, r, req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}
