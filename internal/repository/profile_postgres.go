package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jaekwang-park/todolist/internal/model"
)

type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfile(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) Create(ctx context.Context, owner model.User, username string) (model.Profile, error) {
	query := `
		INSERT INTO profiles (id, username)
		VALUES ($1, $2)
		RETURNING id, username, created_at`

	return r.writeProfile(ctx, owner, query, username)
}

func (r *PostgresProfileRepository) Upsert(ctx context.Context, owner model.User, username string) (model.Profile, error) {
	query := `
		INSERT INTO profiles (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, created_at`

	return r.writeProfile(ctx, owner, query, username)
}

// writeProfile records the owner and runs the profile statement in one
// transaction so a failed profile write leaves no trace.
func (r *PostgresProfileRepository) writeProfile(ctx context.Context, owner model.User, query, username string) (model.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertUser(ctx, tx, owner); err != nil {
		return model.Profile{}, err
	}

	var p model.Profile
	err = tx.QueryRowContext(ctx, query, owner.ID, username).Scan(&p.ID, &p.Username, &p.CreatedAt)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to write profile: %w", mapPQError(err))
	}

	if err := tx.Commit(); err != nil {
		return model.Profile{}, fmt.Errorf("failed to commit profile: %w", mapPQError(err))
	}
	return p, nil
}

func (r *PostgresProfileRepository) Get(ctx context.Context, userID string) (model.ProfileSummary, error) {
	query := `SELECT username, created_at FROM profiles WHERE id = $1`

	var s model.ProfileSummary
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.Username, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProfileSummary{}, sql.ErrNoRows
	}
	if err != nil {
		return model.ProfileSummary{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return s, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
