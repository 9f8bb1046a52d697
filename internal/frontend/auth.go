package frontend

import (
	"context"
	"errors"
	"strings"

	"github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/session"
	"github.com/jaekwang-park/todolist/internal/validate"
)

type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

var (
	ErrMissingCredentials = errors.New("Please enter email and password.")
	ErrUsernameRequired   = errors.New("Please choose a username.")
	ErrUsernameInvalid    = errors.New("Username must be 3–20 chars: letters, numbers, underscores only.")
	ErrNoUserID           = errors.New("Signup failed — no user ID returned.")
	ErrCodeRequired       = errors.New("Please enter the confirmation code.")
)

const (
	msgAccountCreated   = "Account created! Check your email to confirm, then sign in."
	msgAccountConfirmed = "Account confirmed. You can now sign in."
	msgCodeResent       = "A new confirmation code is on its way."
	msgSaveUsername     = "Failed to save username."
	msgSomethingWrong   = "Something went wrong. Please try again."
)

// Authenticator is the part of session.Manager the sign-in form uses.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignUp(ctx context.Context, email, password string) (cognito.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
}

type ProfileCreator interface {
	CreateProfile(ctx context.Context, userID, username string) (model.Profile, error)
}

// Credentials is what the form collects. Username is only read in signup mode.
type Credentials struct {
	Email    string
	Password string
	Username string
}

// AuthForm runs the sign-in and sign-up flows.
type AuthForm struct {
	Mode Mode

	auth     Authenticator
	profiles ProfileCreator
}

func NewAuthForm(auth Authenticator, profiles ProfileCreator) *AuthForm {
	return &AuthForm{Mode: ModeLogin, auth: auth, profiles: profiles}
}

// Validate applies the local checks for the current mode.
func (f *AuthForm) Validate(c Credentials) error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	if !validate.Password(c.Password) {
		return ErrPasswordTooShort
	}
	if f.Mode == ModeSignup {
		username := validate.NormalizeUsername(c.Username)
		if username == "" {
			return ErrUsernameRequired
		}
		if !validate.Username(username) {
			return ErrUsernameInvalid
		}
	}
	return nil
}

// Submit signs in or signs up depending on Mode. Sign-in returns the new
// session. Sign-up returns a notice and no session: the account must be
// confirmed first.
//
// Sign-up registers the identity and then the profile. If the profile call
// fails the identity stays registered without a username.
func (f *AuthForm) Submit(ctx context.Context, c Credentials) (*session.Session, string, error) {
	if err := f.Validate(c); err != nil {
		return nil, "", err
	}
	email := strings.TrimSpace(c.Email)

	if f.Mode != ModeSignup {
		s, err := f.auth.SignIn(ctx, email, c.Password)
		if err != nil {
			return nil, "", identityError(err)
		}
		return s, "", nil
	}

	out, err := f.auth.SignUp(ctx, email, c.Password)
	if err != nil {
		return nil, "", identityError(err)
	}
	if out.UserSub == "" {
		return nil, "", ErrNoUserID
	}

	if _, err := f.profiles.CreateProfile(ctx, out.UserSub, validate.NormalizeUsername(c.Username)); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = msgSaveUsername
		}
		return nil, "", errors.New(msg)
	}
	return nil, msgAccountCreated, nil
}

func (f *AuthForm) Confirm(ctx context.Context, email, code string) (string, error) {
	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" {
		return "", ErrMissingCredentials
	}
	if code == "" {
		return "", ErrCodeRequired
	}
	if err := f.auth.ConfirmSignUp(ctx, email, code); err != nil {
		return "", identityError(err)
	}
	return msgAccountConfirmed, nil
}

func (f *AuthForm) ResendCode(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingCredentials
	}
	if err := f.auth.ResendCode(ctx, email); err != nil {
		return "", identityError(err)
	}
	return msgCodeResent, nil
}

// identityError keeps only the identity service's own message.
func identityError(err error) error {
	msg := cognito.Message(err)
	if msg == "" {
		msg = msgSomethingWrong
	}
	return errors.New(msg)
}
