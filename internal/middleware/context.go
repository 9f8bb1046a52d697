package middleware

import (
	"context"
	"net/http"

	"github.com/jaekwang-park/todolist/internal/model"
)

type contextKey string

const userKey contextKey = "user"

func SetUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the identity attached by the auth middleware.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

func GetUserID(r *http.Request) string {
	u, _ := UserFromContext(r.Context())
	return u.ID
}
