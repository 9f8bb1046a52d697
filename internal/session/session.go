// Package session holds the signed-in user's tokens on the client side. It
// persists them between runs and rotates them when they expire.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/todolist/internal/cognito"
)

// expirySkew treats a token as expired slightly early so it does not lapse
// in flight.
const expirySkew = 30 * time.Second

// User is the identity decoded from the ID token.
type User struct {
	ID    string `toml:"id"`
	Email string `toml:"email"`
	// Username is the identity pool's username, needed to refresh tokens
	// with a client secret. It is not the profile username.
	Username string `toml:"username"`
}

type Session struct {
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	IDToken      string    `toml:"id_token"`
	ExpiresAt    time.Time `toml:"expires_at"`
	User         User      `toml:"user"`
}

func (s *Session) expired(now time.Time) bool {
	return !now.Add(expirySkew).Before(s.ExpiresAt)
}

type Event int

const (
	SignedIn Event = iota + 1
	SignedOut
	TokenRefreshed
)

func (e Event) String() string {
	switch e {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Listener receives auth-state events. The session is nil for SignedOut.
type Listener func(Event, *Session)

// Store persists one session. Load returns nil, nil when nothing is stored.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

type Manager struct {
	idp    cognito.Client
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewManager(idp cognito.Client, store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		idp:       idp,
		store:     store,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for auth-state events and returns a func that
// removes it. Calling the returned func more than once is harmless.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) emit(e Event, s *Session) {
	m.mu.Lock()
	ls := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		ls = append(ls, l)
	}
	m.mu.Unlock()

	for _, l := range ls {
		l(e, s)
	}
}

// Current returns the stored session, refreshing it first when expired. It
// returns nil, nil when nobody is signed in. A refresh the identity service
// refuses signs the user out.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	s, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.AccessToken == "" {
		return nil, nil
	}
	if !s.expired(m.now()) {
		return s, nil
	}

	refreshed, err := m.refresh(ctx, s)
	if err != nil {
		if errors.Is(err, cognito.ErrNotAuthorized) || errors.Is(err, cognito.ErrUserNotFound) {
			m.logger.Info("stored session rejected, signing out", "error", err)
			if err := m.store.Clear(); err != nil {
				return nil, fmt.Errorf("failed to clear session: %w", err)
			}
			m.emit(SignedOut, nil)
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

func (m *Manager) refresh(ctx context.Context, s *Session) (*Session, error) {
	if s.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", cognito.ErrNotAuthorized)
	}
	out, err := m.idp.RefreshTokens(ctx, cognito.RefreshInput{
		Username:     s.User.Username,
		RefreshToken: s.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = s.RefreshToken
	}

	next, err := m.fromAuth(out)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	m.emit(TokenRefreshed, next)
	return next, nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	out, err := m.idp.Login(ctx, cognito.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s, err := m.fromAuth(out)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	m.emit(SignedIn, s)
	return s, nil
}

// SignUp registers the identity only. No session is created until the
// account is confirmed and the user signs in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (cognito.SignUpOutput, error) {
	return m.idp.SignUp(ctx, cognito.SignUpInput{Email: email, Password: password})
}

func (m *Manager) ConfirmSignUp(ctx context.Context, email, code string) error {
	return m.idp.ConfirmSignUp(ctx, cognito.ConfirmSignUpInput{Email: email, Code: code})
}

func (m *Manager) ResendCode(ctx context.Context, email string) error {
	return m.idp.ResendConfirmationCode(ctx, cognito.ResendCodeInput{Email: email})
}

// SignOut revokes the session's tokens everywhere, forgets it locally and
// emits SignedOut. A failed revocation is logged; the local session is
// cleared regardless.
func (m *Manager) SignOut(ctx context.Context) error {
	s, err := m.store.Load()
	if err != nil {
		m.logger.Warn("failed to load session for sign-out", "error", err)
	}
	if s != nil && s.AccessToken != "" {
		if err := m.idp.GlobalSignOut(ctx, cognito.GlobalSignOutInput{AccessToken: s.AccessToken}); err != nil {
			m.logger.Warn("global sign-out failed", "error", err)
		}
	}
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.emit(SignedOut, nil)
	return nil
}

func (m *Manager) fromAuth(out cognito.AuthOutput) (*Session, error) {
	user, err := decodeIDToken(out.IDToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		IDToken:      out.IDToken,
		ExpiresAt:    m.now().Add(time.Duration(out.ExpiresIn) * time.Second),
		User:         user,
	}, nil
}

// decodeIDToken reads the identity claims without checking the signature.
// The token came straight from the identity service over TLS and the API
// verifies every request on its own.
func decodeIDToken(idToken string) (User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return User{}, fmt.Errorf("failed to decode id token: %w", err)
	}

	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	u := User{ID: str("sub"), Email: str("email"), Username: str("cognito:username")}
	if u.ID == "" {
		return User{}, errors.New("id token has no sub claim")
	}
	if u.Username == "" {
		u.Username = u.ID
	}
	return u, nil
}
