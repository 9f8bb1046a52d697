package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaekwang-park/todolist/internal/http/handler"
	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/model"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var testUser = model.User{ID: "user-1", Email: "user1@example.com"}

// serve routes a single request through a chi router so URL params resolve.
// A non-nil user is attached as the authenticated caller.
func serve(t *testing.T, method, pattern, path, body string, user *model.User, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		req = req.WithContext(middleware.SetUser(req.Context(), *user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
