package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jaekwang-park/todolist/internal/model"
)

const todoColumns = `id, user_id, text, completed, created_at`

type PostgresTodoRepository struct {
	db *sql.DB
}

func NewPostgresTodo(db *sql.DB) *PostgresTodoRepository {
	return &PostgresTodoRepository{db: db}
}

func (r *PostgresTodoRepository) List(ctx context.Context, userID string) ([]model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

func (r *PostgresTodoRepository) Create(ctx context.Context, userID, text string) (model.Todo, error) {
	query := `
		INSERT INTO todos (user_id, text, completed)
		VALUES ($1, $2, false)
		RETURNING ` + todoColumns

	return scanTodo(r.db.QueryRowContext(ctx, query, userID, text))
}

func (r *PostgresTodoRepository) SetCompleted(ctx context.Context, userID, todoID string, completed bool) (model.Todo, error) {
	query := `
		UPDATE todos
		SET completed = $1
		WHERE id = $2 AND user_id = $3
		RETURNING ` + todoColumns

	return scanTodo(r.db.QueryRowContext(ctx, query, completed, todoID, userID))
}

// Delete removes the item if the caller owns it. Matching nothing is not an
// error.
func (r *PostgresTodoRepository) Delete(ctx context.Context, userID, todoID string) error {
	query := `DELETE FROM todos WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, todoID, userID); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

func (r *PostgresTodoRepository) DeleteCompleted(ctx context.Context, userID string) error {
	query := `DELETE FROM todos WHERE user_id = $1 AND completed = true`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete completed todos: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTodo(row scannable) (model.Todo, error) {
	var t model.Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, sql.ErrNoRows
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to scan todo: %w", err)
	}
	return t, nil
}

var _ TodoRepository = (*PostgresTodoRepository)(nil)
