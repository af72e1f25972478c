package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	appI18n "github.com/pavelanni/ssbprep/internal/i18n"
	"github.com/pavelanni/ssbprep/internal/practice"
)

// Error codes returned in the error envelope.
const (
	codeInvalidJSON      = "invalid_json"
	codeValidationFailed = "validation_failed"
	codeUnknownQuestion  = "unknown_question"
	codeNotFound         = "not_found"
	codeInternal         = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// decode reads a JSON body into dst and, in strict mode, validates it. It
// writes the error response itself and reports whether the caller may go on.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		slog.Debug("rejecting request body", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusBadRequest, codeInvalidJSON, appI18n.T(ctx, "InvalidJSON"))
		return false
	}
	if !h.config.StrictInput {
		return true
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.internalError(w, r, err)
			return false
		}
		respondError(w, http.StatusBadRequest, codeValidationFailed,
			appI18n.Td(ctx, "ValidationFailed", map[string]any{"Fields": fieldList(verrs)}))
		return false
	}
	return true
}

// fieldList names failing fields by their JSON path, e.g. responses[0].word.
func fieldList(verrs validator.ValidationErrors) string {
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	respondError(w, http.StatusInternalServerError, codeInternal, appI18n.T(r.Context(), "InternalError"))
}

// submit adapts a practice service method to an HTTP handler: decode the
// request, run the evaluation and write the result.
func submit[Req, Resp any](h *Handler, fn func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if !h.decode(w, r, &req) {
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			if errors.Is(err, practice.ErrUnknownQuestion) {
				respondError(w, http.StatusBadRequest, codeUnknownQuestion, appI18n.T(r.Context(), "UnknownQuestion"))
				return
			}
			h.internalError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
