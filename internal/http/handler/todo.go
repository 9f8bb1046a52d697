package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/service"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, todos)
}

type createTodoRequest struct {
	Text string `json:"text"`
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if !decodeBody(w, r, createTodoSchema, &req) {
		return
	}

	todo, err := h.svc.Create(r.Context(), middleware.GetUserID(r), req.Text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, todo)
}

type setCompletedRequest struct {
	Completed bool `json:"completed"`
}

func (h *TodoHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	var req setCompletedRequest
	if !decodeBody(w, r, setCompletedSchema, &req) {
		return
	}

	todo, err := h.svc.SetCompleted(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"), req.Completed)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCompleted(r.Context(), middleware.GetUserID(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
