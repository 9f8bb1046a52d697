package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/repository"
	"github.com/jaekwang-park/todolist/internal/validate"
)

type TodoService struct {
	repo repository.TodoRepository
}

func NewTodoService(repo repository.TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) List(ctx context.Context, userID string) ([]model.Todo, error) {
	todos, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, userID, text string) (model.Todo, error) {
	text, ok := validate.Text(text)
	if !ok {
		return model.Todo{}, invalid("Text is required")
	}

	created, err := s.repo.Create(ctx, userID, text)
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return created, nil
}

// SetCompleted returns ErrNotFound when the caller owns no item with todoID.
// An id that is not a UUID cannot name any item.
func (s *TodoService) SetCompleted(ctx context.Context, userID, todoID string, completed bool) (model.Todo, error) {
	if _, err := uuid.Parse(todoID); err != nil {
		return model.Todo{}, ErrNotFound
	}

	updated, err := s.repo.SetCompleted(ctx, userID, todoID, completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrNotFound
		}
		return model.Todo{}, fmt.Errorf("failed to update todo: %w", err)
	}
	return updated, nil
}

// Delete succeeds whether or not anything was removed.
func (s *TodoService) Delete(ctx context.Context, userID, todoID string) error {
	if _, err := uuid.Parse(todoID); err != nil {
		return nil
	}
	if err := s.repo.Delete(ctx, userID, todoID); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

func (s *TodoService) DeleteCompleted(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCompleted(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete completed todos: %w", err)
	}
	return nil
}
