package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"qat-ledger/internal/app"

	"go.uber.org/zap"
)

type assistantError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeAssistantError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, assistantError{Success: false, Error: msg})
}

// assistant handles /api/assistant. Only POST does work; OPTIONS answers a
// preflight and every other method gets 405.
func (h *Handler) assistant(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodOptions:
		w.Header().Set("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeAssistantError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req app.AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAssistantError(w, http.StatusRequestEntityTooLarge, "حجم الطلب أكبر من المسموح")
			return
		}
		writeAssistantError(w, http.StatusBadRequest, "صيغة الطلب غير صحيحة")
		return
	}
	// Commands and images write to the ledger, so they need a signed-in user.
	// A token always overrides the userId sent in the body.
	if id := userIDFromContext(r.Context()); id != nil {
		req.UserID = id
	} else if req.Mode == app.ModeCommand || req.Mode == app.ModeImage {
		writeAssistantError(w, http.StatusUnauthorized, "يجب تسجيل الدخول لتنفيذ هذا الطلب")
		return
	}

	res, err := h.svc.Assist(r.Context(), req)
	if err != nil {
		if app.IsClientError(err) {
			writeAssistantError(w, http.StatusBadRequest, app.UserMessage(err))
			return
		}
		h.log.Error("assistant request failed",
			zap.String("mode", req.Mode),
			zap.String("command", req.Command),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
		writeAssistantError(w, http.StatusInternalServerError, app.UserMessage(err))
		return
	}
	writeJSON(w, res)
}
