package usecase

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// SnapshotCache abstracts the durable last-known-good cache so coordinators
// stay storage-agnostic. Load returns found=false for a cold cache; both
// sides are best-effort and never gate a remote operation.
type SnapshotCache interface {
	SaveTasks(ctx context.Context, projectID string, tasks []domain.Task) error
	LoadTasks(ctx context.Context, projectID string) ([]domain.Task, bool, error)
	SaveProjects(ctx context.Context, userID string, projects []domain.Project) error
	LoadProjects(ctx context.Context, userID string) ([]domain.Project, bool, error)
}
