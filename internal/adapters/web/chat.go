package web

import (
	"io"
	"net/http"
)

const maxAudioSize = 25 << 20 // Whisper's upload cap

type chatRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// chatMessage handles POST /api/chat: one sentence through the command extractor.
func (h *Handler) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) || !h.validateRequest(w, r, req) {
		return
	}
	res, err := h.svc.ChatCommand(r.Context(), req.Text, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// chatVoice handles POST /api/chat/voice with a multipart "audio" file.
func (h *Handler) chatVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize+(1<<20))
	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		writeError(w, r, "request too large or malformed", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	f, fh, err := r.FormFile("audio")
	if err != nil {
		writeError(w, r, "no audio file provided", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, "failed to read uploaded file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	res, err := h.svc.VoiceCommand(r.Context(), data, fh.Filename, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
