package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

type TaskFilter struct {
	ProjectID string
	UserID    string
}

// TaskRepository is the remote data service surface for task records.
// List returns records ordered by created_at ascending, which downstream
// becomes the child display order. UpsertBatch is keyed by id and
// order-independent, so re-applying the same final state is a no-op.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Insert(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpsertBatch(ctx context.Context, tasks []domain.Task) error
	Delete(ctx context.Context, id string) error
}
