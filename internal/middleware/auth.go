package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jaekwang-park/todolist/internal/model"
)

// ErrInvalidToken is returned by a TokenVerifier when the token itself is
// rejected. Any other verifier error is treated as an upstream failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier resolves a bearer token to the identity it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (model.User, error)
}

// Failure reasons passed to AuthConfig.OnFailure.
const (
	ReasonMissingHeader = "missing_header"
	ReasonInvalidToken  = "invalid_token"
	ReasonUpstream      = "upstream_error"
)

type AuthConfig struct {
	Verifier TokenVerifier
	// OnFailure, if set, is called once for every rejected request.
	OnFailure func(reason string)
	Logger    *slog.Logger
}

type Auth struct {
	cfg AuthConfig
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("middleware: Verifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Auth{cfg: cfg}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.reject(ReasonMissingHeader)
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header")
			return
		}

		user, err := a.cfg.Verifier.VerifyToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				a.reject(ReasonInvalidToken)
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			a.reject(ReasonUpstream)
			a.cfg.Logger.ErrorContext(r.Context(), "token verification failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			return
		}
		if user.ID == "" {
			a.reject(ReasonInvalidToken)
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
	})
}

func (a *Auth) reject(reason string) {
	if a.cfg.OnFailure != nil {
		a.cfg.OnFailure(reason)
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. An empty token is not a token.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}

// CognitoIssuer returns the expected issuer for the given Cognito User Pool.
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
