package handler

import (
	"net/http"

	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

type createProfileRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Create runs without authentication: it is called right after sign-up,
// before the new account is confirmed.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeBody(w, r, createProfileSchema, &req) {
		return
	}

	p, err := h.svc.Create(r.Context(), req.UserID, req.Username)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// Get writes null when the caller has no profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), middleware.GetUserID(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

func (h *ProfileHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req updateUsernameRequest
	if !decodeBody(w, r, updateUsernameSchema, &req) {
		return
	}

	owner, _ := middleware.UserFromContext(r.Context())
	p, err := h.svc.UpdateUsername(r.Context(), owner, req.Username)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(w, r, changePasswordSchema, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), middleware.GetUserID(r), req.NewPassword); err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
