package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
	"qat-ledger/internal/export"

	"go.uber.org/zap"
)

// saleFilterFromQuery reads ?from=&to=&status=&source=&customer=&limit=.
// Dates are YYYY-MM-DD in the business location; "to" is inclusive.
func (h *Handler) saleFilterFromQuery(r *http.Request) (core.SaleFilter, error) {
	q := r.URL.Query()
	f := core.SaleFilter{
		Status:   core.SaleStatus(q.Get("status")),
		Source:   core.SaleSource(q.Get("source")),
		Customer: q.Get("customer"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(core.DateLayout, v, h.cfg.Location)
		if err != nil {
			return f, fmt.Errorf("%w: from must be YYYY-MM-DD", core.ErrInvalidInput)
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(core.DateLayout, v, h.cfg.Location)
		if err != nil {
			return f, fmt.Errorf("%w: to must be YYYY-MM-DD", core.ErrInvalidInput)
		}
		f.To = t.AddDate(0, 0, 1)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: limit must be a positive number", core.ErrInvalidInput)
		}
		f.Limit = n
	}
	return f, nil
}

// listSales handles GET /api/sales.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	f, err := h.saleFilterFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	sales, err := h.svc.ListSales(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if sales == nil {
		sales = []core.Sale{}
	}
	writeJSON(w, sales)
}

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) || !h.validateRequest(w, r, req) {
		return
	}
	req.CreatedBy = userIDFromContext(r.Context())
	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// markSalePaid handles POST /api/sales/{id}/paid.
func (h *Handler) markSalePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.MarkSalePaid(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// analyzeSalesImage handles POST /api/sales/analyze with a multipart "image"
// file and an optional "text" instruction.
func (h *Handler) analyzeSalesImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		writeError(w, r, "request too large or malformed", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	f, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, "no image provided", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, "failed to read uploaded file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	res, err := h.svc.AnalyzeLedgerImage(r.Context(), app.AnalyzeImageRequest{
		Image:       data,
		Instruction: r.FormValue("text"),
		CreatedBy:   userIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// exportSalesCSV handles GET /api/sales/export.csv with the same filters as listSales.
func (h *Handler) exportSalesCSV(w http.ResponseWriter, r *http.Request) {
	f, err := h.saleFilterFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	sales, err := h.svc.ListSales(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	name := "sales-" + time.Now().In(h.cfg.Location).Format(core.DateLayout) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteSalesCSV(w, sales, h.cfg.Location); err != nil {
		h.log.Error("csv export failed", zap.Error(err))
	}
}
