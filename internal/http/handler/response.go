package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/service"
)

// ErrorResponse is the body of every failed request. Error is the text
// clients display; Code is for programs.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", inputErr.Message)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Todo not found")
	case errors.Is(err, service.ErrUsernameTaken):
		WriteError(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already taken")
	case errors.Is(err, service.ErrIdentityNotFound):
		WriteError(w, http.StatusBadRequest, "IDENTITY_NOT_FOUND", "Email is already registered. Please sign in instead.")
	default:
		if info, ok := cognito.LookupError(err); ok {
			WriteError(w, info.Status, info.Code, cognito.Message(err))
			return
		}
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
