package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/model"
)

type mockVerifier struct {
	verifyFn func(ctx context.Context, token string) (model.User, error)
	calls    int
}

func (m *mockVerifier) VerifyToken(ctx context.Context, token string) (model.User, error) {
	m.calls++
	return m.verifyFn(ctx, token)
}

type mockUserGetter struct {
	getUserFn func(ctx context.Context, token string) (model.User, error)
}

func (m *mockUserGetter) GetUser(ctx context.Context, token string) (model.User, error) {
	return m.getUserFn(ctx, token)
}

func newTestAuth(t *testing.T, v middleware.TokenVerifier, onFailure func(string)) *middleware.Auth {
	t.Helper()
	auth, err := middleware.NewAuth(middleware.AuthConfig{
		Verifier:  v,
		OnFailure: onFailure,
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	return auth
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestNewAuth_RequiresVerifier(t *testing.T) {
	if _, err := middleware.NewAuth(middleware.AuthConfig{}); err == nil {
		t.Fatal("expected error without verifier")
	}
}

func TestAuth_HeaderRejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"lowercase scheme", "bearer abc"},
		{"no token", "Bearer "},
		{"whitespace token", "Bearer    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &mockVerifier{verifyFn: func(context.Context, string) (model.User, error) {
				t.Fatal("verifier must not be called")
				return model.User{}, nil
			}}
			var reasons []string
			auth := newTestAuth(t, v, func(r string) { reasons = append(reasons, r) })

			called := false
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			auth.Middleware(inner).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
			if msg := decodeError(t, w); msg != "Missing or invalid Authorization header" {
				t.Errorf("unexpected error message %q", msg)
			}
			if called {
				t.Error("inner handler should not be called")
			}
			if len(reasons) != 1 || reasons[0] != middleware.ReasonMissingHeader {
				t.Errorf("reasons = %v", reasons)
			}
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	v := &mockVerifier{verifyFn: func(_ context.Context, token string) (model.User, error) {
		if token != "good-token" {
			return model.User{}, middleware.ErrInvalidToken
		}
		return model.User{ID: "user-1", Email: "a@example.com"}, nil
	}}
	auth := newTestAuth(t, v, nil)

	var got model.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	auth.Middleware(inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.ID != "user-1" || got.Email != "a@example.com" {
		t.Errorf("unexpected user in context: %+v", got)
	}
}

func TestAuth_VerifierOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		user       model.User
		err        error
		wantStatus int
		wantMsg    string
		wantReason string
	}{
		{"rejected token", model.User{}, middleware.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token", middleware.ReasonInvalidToken},
		{"wrapped rejection", model.User{}, fmt.Errorf("%w: expired", middleware.ErrInvalidToken), http.StatusUnauthorized, "Invalid or expired token", middleware.ReasonInvalidToken},
		{"identity without id", model.User{Email: "x@example.com"}, nil, http.StatusUnauthorized, "Invalid or expired token", middleware.ReasonInvalidToken},
		{"upstream failure", model.User{}, errors.New("connection reset"), http.StatusInternalServerError, "internal server error", middleware.ReasonUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &mockVerifier{verifyFn: func(context.Context, string) (model.User, error) {
				return tt.user, tt.err
			}}
			var reason string
			auth := newTestAuth(t, v, func(r string) { reason = r })

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("inner handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			w := httptest.NewRecorder()
			auth.Middleware(inner).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if msg := decodeError(t, w); msg != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, msg)
			}
			if reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, reason)
			}
		})
	}
}

func TestRemoteVerifier(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantInvalid bool
		wantErr     bool
	}{
		{"ok", nil, false, false},
		{"not authorized", fmt.Errorf("%w: revoked", cognito.ErrNotAuthorized), true, true},
		{"user gone", fmt.Errorf("%w: deleted", cognito.ErrUserNotFound), true, true},
		{"throttled", fmt.Errorf("%w: slow down", cognito.ErrTooManyRequests), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := middleware.RemoteVerifier{Users: &mockUserGetter{
				getUserFn: func(_ context.Context, token string) (model.User, error) {
					if tt.err != nil {
						return model.User{}, tt.err
					}
					return model.User{ID: "sub-" + token}, nil
				},
			}}

			user, err := v.VerifyToken(context.Background(), "abc")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, middleware.ErrInvalidToken) != tt.wantInvalid {
				t.Errorf("errors.Is(ErrInvalidToken) = %v, want %v", !tt.wantInvalid, tt.wantInvalid)
			}
			if !tt.wantErr && user.ID != "sub-abc" {
				t.Errorf("unexpected user %+v", user)
			}
		})
	}
}

func TestCognitoURLs(t *testing.T) {
	if got := middleware.CognitoIssuer("ap-northeast-1", "pool"); got != "https://cognito-idp.ap-northeast-1.amazonaws.com/pool" {
		t.Errorf("CognitoIssuer = %q", got)
	}
	if got := middleware.CognitoJWKSURL("ap-northeast-1", "pool"); got != "https://cognito-idp.ap-northeast-1.amazonaws.com/pool/.well-known/jwks.json" {
		t.Errorf("CognitoJWKSURL = %q", got)
	}
}
