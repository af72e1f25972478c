package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/ssbprep/internal/i18n"
	"github.com/pavelanni/ssbprep/internal/mentor"
	"github.com/pavelanni/ssbprep/internal/model"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleChat answers even when the turn could not be recorded; the failure
// is logged by the mentor service.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.mentor.Chat(r.Context(), req.UserID, req.Message)
	if err != nil && !errors.Is(err, mentor.ErrPersist) {
		h.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model.ChatResponse{Response: resp})
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := mentor.NormalizeUserID(chi.URLParam(r, "user_id"))

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, codeValidationFailed,
				appI18n.Td(r.Context(), "ValidationFailed", map[string]any{"Fields": "limit"}))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	turns, err := h.mentor.History(r.Context(), userID, limit)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model.ChatHistory{UserID: userID, Turns: turns})
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.mentor.Progress(chi.URLParam(r, "user_id")))
}
