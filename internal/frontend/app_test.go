package frontend_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jaekwang-park/todolist/internal/frontend"
	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/session"
)

type mockAPI struct {
	listFn           func(ctx context.Context, token string) ([]model.Todo, error)
	createFn         func(ctx context.Context, token, text string) (model.Todo, error)
	setCompletedFn   func(ctx context.Context, token, id string, completed bool) (model.Todo, error)
	deleteFn         func(ctx context.Context, token, id string) error
	deleteCompleteFn func(ctx context.Context, token string) error
	getProfileFn     func(ctx context.Context, token string) (*model.ProfileSummary, error)
	updateUsernameFn func(ctx context.Context, token, username string) (model.Profile, error)
	changePasswordFn func(ctx context.Context, token, newPassword string) error
}

func (m *mockAPI) ListTodos(ctx context.Context, token string) ([]model.Todo, error) {
	return m.listFn(ctx, token)
}
func (m *mockAPI) CreateTodo(ctx context.Context, token, text string) (model.Todo, error) {
	return m.createFn(ctx, token, text)
}
func (m *mockAPI) SetCompleted(ctx context.Context, token, id string, completed bool) (model.Todo, error) {
	return m.setCompletedFn(ctx, token, id, completed)
}
func (m *mockAPI) DeleteTodo(ctx context.Context, token, id string) error {
	return m.deleteFn(ctx, token, id)
}
func (m *mockAPI) DeleteCompleted(ctx context.Context, token string) error {
	return m.deleteCompleteFn(ctx, token)
}
func (m *mockAPI) GetProfile(ctx context.Context, token string) (*model.ProfileSummary, error) {
	return m.getProfileFn(ctx, token)
}
func (m *mockAPI) UpdateUsername(ctx context.Context, token, username string) (model.Profile, error) {
	return m.updateUsernameFn(ctx, token, username)
}
func (m *mockAPI) ChangePassword(ctx context.Context, token, newPassword string) error {
	return m.changePasswordFn(ctx, token, newPassword)
}

type mockSessions struct {
	current   *session.Session
	err       error
	listeners []session.Listener
	active    int
	signedOut bool

	// rotateTo stands in for an expired session: the next Current call
	// replaces current with it and emits TokenRefreshed.
	rotateTo *session.Session
}

func (m *mockSessions) Current(context.Context) (*session.Session, error) {
	if m.rotateTo != nil {
		m.current, m.rotateTo = m.rotateTo, nil
		m.emit(session.TokenRefreshed, m.current)
	}
	return m.current, m.err
}

func (m *mockSessions) Subscribe(l session.Listener) func() {
	m.listeners = append(m.listeners, l)
	m.active++
	return func() { m.active-- }
}

func (m *mockSessions) SignOut(context.Context) error {
	m.signedOut = true
	for _, l := range m.listeners {
		l(session.SignedOut, nil)
	}
	return nil
}

func (m *mockSessions) emit(e session.Event, s *session.Session) {
	for _, l := range m.listeners {
		l(e, s)
	}
}

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func aliceSession() *session.Session {
	return &session.Session{AccessToken: "tok-1", User: session.User{ID: "sub-alice", Email: "alice@example.com"}}
}

func seededAPI(todos ...model.Todo) *mockAPI {
	return &mockAPI{
		listFn: func(context.Context, string) ([]model.Todo, error) {
			return append([]model.Todo(nil), todos...), nil
		},
		getProfileFn: func(context.Context, string) (*model.ProfileSummary, error) {
			return &model.ProfileSummary{Username: "alice", CreatedAt: now}, nil
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func readyApp(t *testing.T, api *mockAPI, sessions *mockSessions) *frontend.App {
	t.Helper()
	app := frontend.NewApp(api, sessions, quietLogger())
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func TestApp_Init_SignedOut(t *testing.T) {
	api := &mockAPI{
		listFn: func(context.Context, string) ([]model.Todo, error) {
			t.Error("no API calls without a session")
			return nil, nil
		},
		getProfileFn: func(context.Context, string) (*model.ProfileSummary, error) {
			t.Error("no API calls without a session")
			return nil, nil
		},
	}
	sessions := &mockSessions{}
	app := frontend.NewApp(api, sessions, quietLogger())

	if err := app.Init(context.Background()); !errors.Is(err, frontend.ErrSignedOut) {
		t.Fatalf("expected ErrSignedOut, got %v", err)
	}
	if app.State() != frontend.StateSignedOut {
		t.Errorf("state = %v", app.State())
	}
	if len(sessions.listeners) != 0 {
		t.Error("should not subscribe without a session")
	}
}

func TestApp_Init_Ready(t *testing.T) {
	api := seededAPI(model.Todo{ID: "t1", Text: "Buy milk"})
	sessions := &mockSessions{current: aliceSession()}
	app := readyApp(t, api, sessions)

	v := app.View()
	if v.State != frontend.StateReady {
		t.Errorf("state = %v", v.State)
	}
	if v.Header != "@alice (alice@example.com)" {
		t.Errorf("header = %q", v.Header)
	}
	if len(v.Visible) != 1 || v.ItemsLeft != "1 item left" || v.Empty {
		t.Errorf("unexpected view %+v", v)
	}
	if sessions.active != 1 {
		t.Errorf("expected one active subscription, got %d", sessions.active)
	}
}

func TestApp_Init_PartialFailures(t *testing.T) {
	api := &mockAPI{
		listFn: func(context.Context, string) ([]model.Todo, error) {
			return nil, errors.New("API request failed")
		},
		getProfileFn: func(context.Context, string) (*model.ProfileSummary, error) {
			return nil, errors.New("API request failed")
		},
	}
	app := readyApp(t, api, &mockSessions{current: aliceSession()})

	v := app.View()
	if v.State != frontend.StateReady {
		t.Errorf("state = %v", v.State)
	}
	if v.Header != "@User (alice@example.com)" {
		t.Errorf("header = %q", v.Header)
	}
	if !v.Empty || v.ItemsLeft != "0 items left" || v.Visible == nil {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestApp_FilterAndCounts(t *testing.T) {
	api := seededAPI(
		model.Todo{ID: "a", Text: "one"},
		model.Todo{ID: "b", Text: "two", Completed: true},
		model.Todo{ID: "c", Text: "three"},
	)
	app := readyApp(t, api, &mockSessions{current: aliceSession()})

	tests := []struct {
		filter  model.Filter
		visible int
	}{
		{model.FilterAll, 3},
		{model.FilterActive, 2},
		{model.FilterCompleted, 1},
	}
	for _, tt := range tests {
		app.SetFilter(tt.filter)
		v := app.View()
		if len(v.Visible) != tt.visible {
			t.Errorf("%s: visible = %d, want %d", tt.filter, len(v.Visible), tt.visible)
		}
		if v.ItemsLeft != "2 items left" {
			t.Errorf("%s: ItemsLeft = %q", tt.filter, v.ItemsLeft)
		}
	}

	app.SetFilter("bogus")
	if app.View().Filter != model.FilterCompleted {
		t.Error("an invalid filter should be ignored")
	}
}

func TestApp_Mutations(t *testing.T) {
	api := seededAPI(model.Todo{ID: "a", Text: "one"}, model.Todo{ID: "b", Text: "two", Completed: true})
	api.createFn = func(_ context.Context, token, text string) (model.Todo, error) {
		if token != "tok-1" {
			t.Errorf("token = %q", token)
		}
		return model.Todo{ID: "c", Text: text}, nil
	}
	api.setCompletedFn = func(_ context.Context, _ string, id string, completed bool) (model.Todo, error) {
		return model.Todo{ID: id, Text: "one (server)", Completed: completed}, nil
	}
	api.deleteFn = func(context.Context, string, string) error { return nil }
	api.deleteCompleteFn = func(context.Context, string) error { return nil }
	app := readyApp(t, api, &mockSessions{current: aliceSession()})
	ctx := context.Background()

	if err := app.Add(ctx, "  Buy milk  "); err != nil {
		t.Fatalf("Add: %v", err)
	}
	v := app.View()
	if v.Total != 3 || v.Visible[2].Text != "Buy milk" {
		t.Fatalf("Add did not append the created todo: %+v", v.Visible)
	}

	if err := app.Toggle(ctx, "a"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	v = app.View()
	if !v.Visible[0].Completed || v.Visible[0].Text != "one (server)" {
		t.Errorf("Toggle should store the server copy, got %+v", v.Visible[0])
	}

	if err := app.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	v = app.View()
	if v.Total != 1 || v.Visible[0].ID != "c" {
		t.Fatalf("ClearCompleted left %+v", v.Visible)
	}

	if err := app.Delete(ctx, "c"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v := app.View(); !v.Empty || v.ItemsLeft != "0 items left" {
		t.Errorf("unexpected view after delete %+v", v)
	}
}

func TestApp_AddBlankIsIgnored(t *testing.T) {
	api := seededAPI()
	api.createFn = func(context.Context, string, string) (model.Todo, error) {
		t.Error("blank text must not reach the API")
		return model.Todo{}, nil
	}
	app := readyApp(t, api, &mockSessions{current: aliceSession()})

	if err := app.Add(context.Background(), "   "); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestApp_FailedMutationKeepsState(t *testing.T) {
	api := seededAPI(model.Todo{ID: "a", Text: "one"})
	api.setCompletedFn = func(context.Context, string, string, bool) (model.Todo, error) {
		return model.Todo{}, errors.New("Todo not found")
	}
	api.deleteFn = func(context.Context, string, string) error { return errors.New("API request failed") }
	app := readyApp(t, api, &mockSessions{current: aliceSession()})

	if err := app.Toggle(context.Background(), "a"); err == nil || err.Error() != "Todo not found" {
		t.Fatalf("Toggle: %v", err)
	}
	if err := app.Delete(context.Background(), "a"); err == nil {
		t.Fatal("expected delete error")
	}
	if v := app.View(); v.Total != 1 || v.Visible[0].Completed {
		t.Errorf("state changed on failure: %+v", v.Visible)
	}
}

func TestApp_UpdateUsername(t *testing.T) {
	api := seededAPI()
	var sent string
	api.updateUsernameFn = func(_ context.Context, _ string, username string) (model.Profile, error) {
		sent = username
		return model.Profile{ID: "sub-alice", Username: username, CreatedAt: now}, nil
	}
	app := readyApp(t, api, &mockSessions{current: aliceSession()})

	notice, err := app.UpdateUsername(context.Background(), "  New_Name ")
	if err != nil {
		t.Fatalf("UpdateUsername: %v", err)
	}
	if sent != "new_name" || notice != "Username updated successfully!" {
		t.Errorf("sent %q, notice %q", sent, notice)
	}
	if h := app.View().Header; h != "@new_name (alice@example.com)" {
		t.Errorf("header = %q", h)
	}

	sent = ""
	if notice, err := app.UpdateUsername(context.Background(), "   "); err != nil || notice != "" || sent != "" {
		t.Errorf("empty username should be ignored, got %q %v", notice, err)
	}
}

func TestApp_ChangePassword(t *testing.T) {
	api := seededAPI()
	calls := 0
	api.changePasswordFn = func(context.Context, string, string) error {
		calls++
		return nil
	}
	app := readyApp(t, api, &mockSessions{current: aliceSession()})
	ctx := context.Background()

	if _, err := app.ChangePassword(ctx, "abc", "abc"); !errors.Is(err, frontend.ErrPasswordTooShort) {
		t.Errorf("short: got %v", err)
	}
	if _, err := app.ChangePassword(ctx, "abcdef", "abcdeg"); !errors.Is(err, frontend.ErrPasswordMismatch) {
		t.Errorf("mismatch: got %v", err)
	}
	if calls != 0 {
		t.Fatal("local checks must run before any request")
	}
	notice, err := app.ChangePassword(ctx, "abcdef", "abcdef")
	if err != nil || notice != "Password changed successfully!" || calls != 1 {
		t.Errorf("got %q, %v, calls %d", notice, err, calls)
	}
}

func TestApp_AuthEvents(t *testing.T) {
	api := seededAPI()
	sessions := &mockSessions{current: aliceSession()}
	app := readyApp(t, api, sessions)

	changes := 0
	app.OnChange(func() { changes++ })

	if err := app.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !sessions.signedOut || app.State() != frontend.StateSignedOut {
		t.Errorf("signedOut=%v state=%v", sessions.signedOut, app.State())
	}
	if changes != 1 {
		t.Errorf("expected 1 change notification, got %d", changes)
	}
	if err := app.Add(context.Background(), "after sign-out"); !errors.Is(err, frontend.ErrSignedOut) {
		t.Errorf("mutation after sign-out: expected ErrSignedOut, got %v", err)
	}

	app.Close()
	if sessions.active != 0 {
		t.Errorf("Close should unsubscribe, %d active", sessions.active)
	}
}

func TestApp_RefreshesExpiredToken(t *testing.T) {
	api := seededAPI()
	var tokens []string
	api.createFn = func(_ context.Context, token, text string) (model.Todo, error) {
		tokens = append(tokens, token)
		return model.Todo{ID: "t-" + text, Text: text}, nil
	}
	sessions := &mockSessions{current: aliceSession()}
	app := readyApp(t, api, sessions)

	changes := 0
	app.OnChange(func() { changes++ })

	// The session expires after Init; the manager rotates it on the next read.
	sessions.rotateTo = &session.Session{AccessToken: "tok-2", User: aliceSession().User}
	ctx := context.Background()
	if err := app.Add(ctx, "buy milk"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := app.Add(ctx, "buy eggs"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if len(tokens) != 2 || tokens[0] != "tok-2" || tokens[1] != "tok-2" {
		t.Errorf("expected the rotated token on every call, got %v", tokens)
	}
	if changes != 1 {
		t.Errorf("expected 1 change notification for the refresh, got %d", changes)
	}
	if app.State() != frontend.StateReady {
		t.Errorf("state = %v", app.State())
	}
}

func TestApp_SessionGoneBeforeMutation(t *testing.T) {
	api := seededAPI(model.Todo{ID: "t1", Text: "Buy milk"})
	api.deleteFn = func(context.Context, string, string) error {
		t.Error("no API call without a session")
		return nil
	}
	sessions := &mockSessions{current: aliceSession()}
	app := readyApp(t, api, sessions)

	sessions.current = nil
	if err := app.Delete(context.Background(), "t1"); !errors.Is(err, frontend.ErrSignedOut) {
		t.Fatalf("expected ErrSignedOut, got %v", err)
	}
	if app.State() != frontend.StateSignedOut {
		t.Errorf("state = %v", app.State())
	}
	if len(app.View().Visible) != 1 {
		t.Error("todos should be untouched")
	}
}

func TestApp_Init_SignedOutDuringFetch(t *testing.T) {
	sessions := &mockSessions{current: aliceSession()}
	api := seededAPI()
	api.listFn = func(context.Context, string) ([]model.Todo, error) {
		sessions.emit(session.SignedOut, nil)
		return []model.Todo{}, nil
	}
	app := frontend.NewApp(api, sessions, quietLogger())

	if err := app.Init(context.Background()); !errors.Is(err, frontend.ErrSignedOut) {
		t.Fatalf("expected ErrSignedOut, got %v", err)
	}
	if app.State() != frontend.StateSignedOut {
		t.Errorf("state = %v", app.State())
	}
	if sessions.active != 0 {
		t.Errorf("a failed Init should unsubscribe, %d active", sessions.active)
	}
}
