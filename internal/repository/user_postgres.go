package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jaekwang-park/todolist/internal/model"
)

// PostgreSQL error codes the profile store reacts to.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertUser mirrors an identity into the users table. An empty email never
// overwrites a known one; verified access tokens do not always carry it.
func upsertUser(ctx context.Context, db execer, u model.User) error {
	if u.ID == "" {
		return ErrUnknownUser
	}
	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email)`

	if _, err := db.ExecContext(ctx, query, u.ID, u.Email); err != nil {
		return fmt.Errorf("failed to upsert user: %w", mapPQError(err))
	}
	return nil
}

// mapPQError translates constraint violations into repository sentinels and
// leaves everything else untouched.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrUsernameTaken, pqErr.Constraint)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrUnknownUser, pqErr.Constraint)
	}
	return err
}
