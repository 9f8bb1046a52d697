package repository

import (
	"context"

	"github.com/jaekwang-park/todolist/internal/model"
)

// TodoRepository stores task items. Every method is scoped to an owner; rows
// belonging to anyone else are invisible.
type TodoRepository interface {
	List(ctx context.Context, userID string) ([]model.Todo, error)
	Create(ctx context.Context, userID, text string) (model.Todo, error)
	// SetCompleted returns sql.ErrNoRows when no row matched id and owner.
	SetCompleted(ctx context.Context, userID, todoID string, completed bool) (model.Todo, error)
	Delete(ctx context.Context, userID, todoID string) error
	DeleteCompleted(ctx context.Context, userID string) error
}
