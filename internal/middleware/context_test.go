package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/model"
)

func TestSetAndGetUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	if got := middleware.GetUserID(req); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if _, ok := middleware.UserFromContext(req.Context()); ok {
		t.Error("expected no user before SetUser")
	}

	ctx := middleware.SetUser(req.Context(), model.User{ID: "user-abc", Email: "abc@example.com"})
	req = req.WithContext(ctx)

	if got := middleware.GetUserID(req); got != "user-abc" {
		t.Errorf("expected user-abc, got %q", got)
	}
	u, ok := middleware.UserFromContext(req.Context())
	if !ok || u.Email != "abc@example.com" {
		t.Errorf("unexpected user %+v (ok=%v)", u, ok)
	}
}
