package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/repository"
	"github.com/jaekwang-park/todolist/internal/validate"
)

const (
	msgUsernameRule      = "Username must be 3–20 characters: letters, numbers, underscores only"
	msgPasswordTooShort  = "Password must be at least 6 characters"
	msgProfileFieldsReqd = "userId and username are required"
	msgUsernameRequired  = "username is required"
)

// IdentityAdmin is the part of the identity service the profile service needs.
type IdentityAdmin interface {
	LookupUser(ctx context.Context, userID string) (model.User, error)
	SetUserPassword(ctx context.Context, userID, password string) error
}

type ProfileService struct {
	repo     repository.ProfileRepository
	identity IdentityAdmin
}

func NewProfileService(repo repository.ProfileRepository, identity IdentityAdmin) *ProfileService {
	return &ProfileService{repo: repo, identity: identity}
}

// Create registers the username for a freshly signed-up identity. It is
// called without a session, so the identity is confirmed with the identity
// service before anything is written.
func (s *ProfileService) Create(ctx context.Context, userID, username string) (model.Profile, error) {
	username = validate.NormalizeUsername(username)
	if userID == "" || username == "" {
		return model.Profile{}, invalid(msgProfileFieldsReqd)
	}
	if !validate.Username(username) {
		return model.Profile{}, invalid(msgUsernameRule)
	}

	owner, err := s.identity.LookupUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cognito.ErrUserNotFound) {
			return model.Profile{}, ErrIdentityNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to look up identity: %w", err)
	}
	// The pool may be keyed by username rather than sub.
	owner.ID = userID

	p, err := s.repo.Create(ctx, owner, username)
	if err != nil {
		return model.Profile{}, mapRepoError("create profile", err)
	}
	return p, nil
}

// Get returns nil when the caller has not created a profile yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.ProfileSummary, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileService) UpdateUsername(ctx context.Context, owner model.User, username string) (model.Profile, error) {
	username = validate.NormalizeUsername(username)
	if username == "" {
		return model.Profile{}, invalid(msgUsernameRequired)
	}
	if !validate.Username(username) {
		return model.Profile{}, invalid(msgUsernameRule)
	}

	p, err := s.repo.Upsert(ctx, owner, username)
	if err != nil {
		return model.Profile{}, mapRepoError("update username", err)
	}
	return p, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if !validate.Password(newPassword) {
		return invalid(msgPasswordTooShort)
	}

	// Identity errors keep their sentinel; the HTTP layer decides which are
	// the caller's fault.
	if err := s.identity.SetUserPassword(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrUnknownUser):
		return ErrIdentityNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
