package repository

import (
	"context"
	"errors"

	"github.com/jaekwang-park/todolist/internal/model"
)

var (
	// ErrUsernameTaken is returned when another profile already holds the username.
	ErrUsernameTaken = errors.New("username taken")
	// ErrUnknownUser is returned when a profile would point at no identity.
	ErrUnknownUser = errors.New("unknown user")
)

type ProfileRepository interface {
	// Create inserts a profile for owner, recording owner in the users table
	// first. Any uniqueness clash, on the username or on the owner, is
	// reported as ErrUsernameTaken.
	Create(ctx context.Context, owner model.User, username string) (model.Profile, error)
	// Upsert creates the owner's profile or replaces its username.
	Upsert(ctx context.Context, owner model.User, username string) (model.Profile, error)
	// Get returns sql.ErrNoRows when the owner has no profile.
	Get(ctx context.Context, userID string) (model.ProfileSummary, error)
}
