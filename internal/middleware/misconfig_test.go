package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/todolist/internal/middleware"
)

func TestMisconfigured(t *testing.T) {
	h := middleware.Misconfigured([]string{"COGNITO_USER_POOL_ID", "COGNITO_APP_CLIENT_ID"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler should not be called")
		}),
	)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/todos", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", method, w.Code)
		}
		want := "Server misconfiguration: missing COGNITO_USER_POOL_ID, COGNITO_APP_CLIENT_ID"
		if msg := decodeError(t, w); msg != want {
			t.Errorf("%s: error = %q, want %q", method, msg, want)
		}
	}
}
