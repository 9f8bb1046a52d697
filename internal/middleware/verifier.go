package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/model"
)

// UserGetter resolves an access token through the identity service.
type UserGetter interface {
	GetUser(ctx context.Context, accessToken string) (model.User, error)
}

// RemoteVerifier asks the identity service about every token. Revoked tokens
// are rejected immediately.
type RemoteVerifier struct {
	Users UserGetter
}

func (v RemoteVerifier) VerifyToken(ctx context.Context, token string) (model.User, error) {
	user, err := v.Users.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, cognito.ErrNotAuthorized) || errors.Is(err, cognito.ErrUserNotFound) {
			return model.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return model.User{}, err
	}
	return user, nil
}

// JWTVerifier checks Cognito access tokens locally against the pool's
// signing keys.
type JWTVerifier struct {
	Keys        *JWKSClient
	Issuer      string
	AppClientID string
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenStr string) (model.User, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}
		return v.Keys.GetKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, ErrJWKSUnavailable) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.User{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}
	// Access tokens carry client_id instead of aud.
	if use, _ := claims["token_use"].(string); use != "access" {
		return model.User{}, fmt.Errorf("%w: token_use %q", ErrInvalidToken, use)
	}
	if cid, _ := claims["client_id"].(string); cid != v.AppClientID {
		return model.User{}, fmt.Errorf("%w: client_id mismatch", ErrInvalidToken)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return model.User{}, fmt.Errorf("%w: sub claim not found", ErrInvalidToken)
	}

	return model.User{ID: sub}, nil
}

var (
	_ TokenVerifier = RemoteVerifier{}
	_ TokenVerifier = (*JWTVerifier)(nil)
)
