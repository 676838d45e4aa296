package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"qat-ledger/internal/app"
	"qat-ledger/internal/core"
	"qat-ledger/internal/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps an ApplicationService error to a status code and
// logs the ones that are not the caller's fault.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, app.UserMessage(err), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &verrs):
		writeError(w, r, app.UserMessage(err), "VALIDATION_FAILED", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, app.UserMessage(err), "BAD_REQUEST", http.StatusBadRequest)
	case errors.Is(err, storage.ErrUnsupportedType):
		writeError(w, r, app.UserMessage(err), "UNSUPPORTED_TYPE", http.StatusUnsupportedMediaType)
	case errors.Is(err, storage.ErrTooLarge):
		writeError(w, r, app.UserMessage(err), "FILE_TOO_LARGE", http.StatusRequestEntityTooLarge)
	case errors.Is(err, app.ErrAssistantUnavailable):
		writeError(w, r, app.UserMessage(err), "ASSISTANT_UNAVAILABLE", http.StatusServiceUnavailable)
	default:
		h.log.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, r, app.UserMessage(err), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
