// Package frontend holds the client's view state and drives the API on the
// user's behalf. It knows nothing about how the state is drawn.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/session"
	"github.com/jaekwang-park/todolist/internal/validate"
)

// ErrSignedOut is returned by Init when there is no session. The caller
// should send the user to sign in.
var ErrSignedOut = errors.New("not signed in")

var (
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrPasswordMismatch = errors.New("Passwords do not match.")
)

const (
	msgUsernameUpdated = "Username updated successfully!"
	msgPasswordChanged = "Password changed successfully!"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateSignedOut
)

// API is the part of the HTTP API the app uses.
type API interface {
	ListTodos(ctx context.Context, token string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, token, text string) (model.Todo, error)
	SetCompleted(ctx context.Context, token, id string, completed bool) (model.Todo, error)
	DeleteTodo(ctx context.Context, token, id string) error
	DeleteCompleted(ctx context.Context, token string) error
	GetProfile(ctx context.Context, token string) (*model.ProfileSummary, error)
	UpdateUsername(ctx context.Context, token, username string) (model.Profile, error)
	ChangePassword(ctx context.Context, token, newPassword string) error
}

// Sessions is the part of session.Manager the app uses.
type Sessions interface {
	Current(ctx context.Context) (*session.Session, error)
	Subscribe(l session.Listener) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// View is everything a renderer needs, computed under the app's lock.
type View struct {
	State     State
	Filter    model.Filter
	Visible   []model.Todo
	Total     int
	Remaining int
	ItemsLeft string
	Empty     bool
	Header    string
}

type App struct {
	api      API
	sessions Sessions
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	user        session.User
	profile     *model.ProfileSummary
	todos       []model.Todo
	filter      model.Filter
	unsubscribe func()
	onChange    func()
}

func NewApp(api API, sessions Sessions, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		api:      api,
		sessions: sessions,
		logger:   logger,
		filter:   model.FilterAll,
		todos:    []model.Todo{},
	}
}

// OnChange registers fn to be called after any change that did not come from
// a direct call, such as an auth-state event.
func (a *App) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Init loads the session, profile and todos. Profile and todo failures are
// logged and leave empty state behind; only a missing session is an error.
func (a *App) Init(ctx context.Context) error {
	s, err := a.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		a.mu.Lock()
		a.state = StateSignedOut
		a.mu.Unlock()
		return ErrSignedOut
	}

	// Subscribe before fetching so a sign-out during the fetches is not lost.
	unsubscribe := a.sessions.Subscribe(a.handleAuthEvent)
	a.mu.Lock()
	a.unsubscribe = unsubscribe
	a.user = s.User
	a.mu.Unlock()

	profile, err := a.api.GetProfile(ctx, s.AccessToken)
	if err != nil {
		a.logger.Error("failed to load profile", "error", err)
		profile = nil
	}
	todos, err := a.api.ListTodos(ctx, s.AccessToken)
	if err != nil {
		a.logger.Error("failed to load tasks", "error", err)
		todos = []model.Todo{}
	}

	a.mu.Lock()
	a.profile = profile
	a.todos = todos
	signedOut := a.state == StateSignedOut
	if !signedOut {
		a.state = StateReady
	}
	a.mu.Unlock()

	if signedOut {
		a.Close()
		return ErrSignedOut
	}
	return nil
}

func (a *App) handleAuthEvent(e session.Event, s *session.Session) {
	a.mu.Lock()
	switch e {
	case session.SignedOut:
		a.state = StateSignedOut
	default:
		if s != nil && s.User.ID != "" {
			a.user = s.User
		}
	}
	notify := a.onChange
	a.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Close stops listening for auth-state events.
func (a *App) Close() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) SetFilter(f model.Filter) {
	if !f.IsValid() {
		return
	}
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()
}

func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()

	visible := make([]model.Todo, 0, len(a.todos))
	remaining := 0
	for _, t := range a.todos {
		if !t.Completed {
			remaining++
		}
		if a.filter.Match(t) {
			visible = append(visible, t)
		}
	}

	return View{
		State:     a.state,
		Filter:    a.filter,
		Visible:   visible,
		Total:     len(a.todos),
		Remaining: remaining,
		ItemsLeft: itemsLeft(remaining),
		Empty:     len(visible) == 0,
		Header:    header(a.profile, a.user.Email),
	}
}

func itemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

func header(p *model.ProfileSummary, email string) string {
	username := "User"
	if p != nil && p.Username != "" {
		username = p.Username
	}
	return fmt.Sprintf("@%s (%s)", username, email)
}

// token asks the session manager for the access token on every call, so an
// expired session is refreshed before it is used.
func (a *App) token(ctx context.Context) (string, error) {
	if a.State() == StateSignedOut {
		return "", ErrSignedOut
	}
	s, err := a.sessions.Current(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		a.mu.Lock()
		a.state = StateSignedOut
		a.mu.Unlock()
		return "", ErrSignedOut
	}
	return s.AccessToken, nil
}

// Add creates a todo. Blank text is ignored without a request.
func (a *App) Add(ctx context.Context, text string) error {
	text, ok := validate.Text(text)
	if !ok {
		return nil
	}
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	created, err := a.api.CreateTodo(ctx, token, text)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.todos = append(a.todos, created)
	a.mu.Unlock()
	return nil
}

// Toggle flips a todo's completion and stores the server's copy. Unknown ids
// are ignored.
func (a *App) Toggle(ctx context.Context, id string) error {
	a.mu.Lock()
	idx := a.indexOf(id)
	var completed bool
	if idx >= 0 {
		completed = a.todos[idx].Completed
	}
	a.mu.Unlock()
	if idx < 0 {
		return nil
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	updated, err := a.api.SetCompleted(ctx, token, id, !completed)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if i := a.indexOf(id); i >= 0 {
		a.todos[i] = updated
	}
	a.mu.Unlock()
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	if err := a.api.DeleteTodo(ctx, token, id); err != nil {
		return err
	}
	a.mu.Lock()
	a.todos = removeTodos(a.todos, func(t model.Todo) bool { return t.ID == id })
	a.mu.Unlock()
	return nil
}

func (a *App) ClearCompleted(ctx context.Context) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	if err := a.api.DeleteCompleted(ctx, token); err != nil {
		return err
	}
	a.mu.Lock()
	a.todos = removeTodos(a.todos, func(t model.Todo) bool { return t.Completed })
	a.mu.Unlock()
	return nil
}

// UpdateUsername returns a notice for the user on success. An empty name is
// ignored and returns "".
func (a *App) UpdateUsername(ctx context.Context, username string) (string, error) {
	username = validate.NormalizeUsername(username)
	if username == "" {
		return "", nil
	}
	token, err := a.token(ctx)
	if err != nil {
		return "", err
	}
	p, err := a.api.UpdateUsername(ctx, token, username)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.profile = &model.ProfileSummary{Username: p.Username, CreatedAt: p.CreatedAt}
	a.mu.Unlock()
	return msgUsernameUpdated, nil
}

func (a *App) ChangePassword(ctx context.Context, newPassword, confirm string) (string, error) {
	if !validate.Password(newPassword) {
		return "", ErrPasswordTooShort
	}
	if newPassword != confirm {
		return "", ErrPasswordMismatch
	}
	token, err := a.token(ctx)
	if err != nil {
		return "", err
	}
	if err := a.api.ChangePassword(ctx, token, newPassword); err != nil {
		return "", err
	}
	return msgPasswordChanged, nil
}

// SignOut ends the session. The state change arrives through the auth-state
// subscription like any other sign-out.
func (a *App) SignOut(ctx context.Context) error {
	return a.sessions.SignOut(ctx)
}

// Username returns the profile username, or "" without a profile.
func (a *App) Username() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile == nil {
		return ""
	}
	return a.profile.Username
}

// indexOf must be called with a.mu held.
func (a *App) indexOf(id string) int {
	for i, t := range a.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// removeTodos returns a new slice; views already handed out are not mutated.
func removeTodos(todos []model.Todo, del func(model.Todo) bool) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if !del(t) {
			out = append(out, t)
		}
	}
	return out
}
