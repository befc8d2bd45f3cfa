package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

type ProjectFilter struct {
	UserID string
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
	Insert(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}
