package cognito

import (
	"context"

	"github.com/jaekwang-park/todolist/internal/model"
)

// Client is the end-user side of the identity service: everything a signed-out
// or signed-in person can do with their own credentials.
type Client interface {
	SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, input ConfirmSignUpInput) error
	ResendConfirmationCode(ctx context.Context, input ResendCodeInput) error
	Login(ctx context.Context, input LoginInput) (AuthOutput, error)
	RefreshTokens(ctx context.Context, input RefreshInput) (AuthOutput, error)
	GlobalSignOut(ctx context.Context, input GlobalSignOutInput) error
}

// Admin is the server side of the identity service. It runs with the
// service's own credentials and may act on any account.
type Admin interface {
	// GetUser resolves an access token to the identity it was issued to.
	GetUser(ctx context.Context, accessToken string) (model.User, error)
	// LookupUser fetches an identity by its subject ID.
	LookupUser(ctx context.Context, userID string) (model.User, error)
	// SetUserPassword replaces an identity's password without the old one.
	SetUserPassword(ctx context.Context, userID, password string) error
}

type SignUpInput struct {
	Email    string
	Password string
}

type SignUpOutput struct {
	UserSub      string
	Confirmed    bool
	CodeDelivery string // e.g., "EMAIL"
}

type ConfirmSignUpInput struct {
	Email string
	Code  string
}

type ResendCodeInput struct {
	Email string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput contains tokens returned after successful authentication.
// A refresh leaves RefreshToken empty; callers keep the one they have.
type AuthOutput struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

// RefreshInput carries the pool username the refresh token belongs to. It is
// only used for the secret hash.
type RefreshInput struct {
	Username     string
	RefreshToken string
}

type GlobalSignOutInput struct {
	AccessToken string
}
