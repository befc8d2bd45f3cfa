// Package projects implements the sync coordinator for a user's project
// list. Unlike tasks, project creation is optimistic and inbound change
// events reconcile per-event instead of by refetch: the list is small, the
// event payload carries the whole record, and a wholesale refetch would
// discard concurrent optimistic entries.
package projects

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/store"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

// Coordinator owns the record store for one user's project list.
type Coordinator struct {
	userID string

	store  *store.Store
	remote repository.ProjectRepository
	cache  usecase.SnapshotCache
	logger *zap.Logger
}

func New(userID string, st *store.Store, remote repository.ProjectRepository, cache usecase.SnapshotCache, logger *zap.Logger) *Coordinator {
	if st == nil {
		st = store.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		userID: userID,
		store:  st,
		remote: remote,
		cache:  cache,
		logger: logger.With(zap.String("user_id", userID)),
	}
}

// Store exposes the coordinator's record store for observers.
func (c *Coordinator) Store() *store.Store { return c.store }

// UserID returns the user scope this coordinator serves.
func (c *Coordinator) UserID() string { return c.userID }

// Mount primes from the snapshot cache, then fetches.
func (c *Coordinator) Mount(ctx context.Context) error {
	if c.cache != nil {
		if cached, ok, err := c.cache.LoadProjects(ctx, c.userID); err == nil && ok {
			c.store.SetProjects(cached)
		}
	}
	return c.Refresh(ctx)
}

// Refresh replaces the project list wholesale from the remote store.
func (c *Coordinator) Refresh(ctx context.Context) error {
	fetched, err := c.remote.List(ctx, repository.ProjectFilter{UserID: c.userID})
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "failed to fetch projects", err)
	}
	c.store.SetProjects(fetched)

	if c.cache != nil {
		if err := c.cache.SaveProjects(ctx, c.userID, fetched); err != nil {
			c.logger.Warn("snapshot save failed", zap.Error(err))
		}
	}
	return nil
}

// List returns the current project records in order.
func (c *Coordinator) List() []domain.Project {
	return c.store.Projects()
}

// Create adds the project optimistically under a client-minted id, then
// issues the remote insert carrying that same id so no remap is needed. On
// failure the optimistic record is removed again.
func (c *Coordinator) Create(ctx context.Context, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	optimistic := domain.Project{
		ID:          uuid.NewString(),
		UserID:      c.userID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	c.store.AddProject(optimistic)

	candidate := optimistic
	created, err := c.remote.Insert(ctx, &candidate)
	if err != nil {
		c.store.RemoveProject(optimistic.ID)
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "failed to create project", err)
	}

	// Server-assigned timestamps replace the optimistic zero values.
	c.store.ReplaceProject(*created)
	c.logger.Info("project created", zap.String("project_id", created.ID))
	return created, nil
}

// Update renames the project. The new values apply to the store
// optimistically; a failed remote update restores the previous record.
func (c *Coordinator) Update(ctx context.Context, projectID, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	previous, ok := c.store.Project(projectID)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	updated := previous
	updated.Name = name
	updated.Description = strings.TrimSpace(description)
	c.store.ReplaceProject(updated)

	if err := c.remote.Update(ctx, &updated); err != nil {
		c.store.ReplaceProject(previous)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "failed to update project", err)
	}

	// The remote call filled in the server-assigned UpdatedAt.
	c.store.ReplaceProject(updated)
	c.logger.Info("project updated", zap.String("project_id", projectID))
	return &updated, nil
}

// Delete removes the project remotely, then locally. The remote store's
// cascade invalidates all tasks under it.
func (c *Coordinator) Delete(ctx context.Context, projectID string) error {
	if err := c.remote.Delete(ctx, projectID); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		return domain.WrapError(domain.ErrCodeUnavailable, "failed to delete project", err)
	}
	c.store.RemoveProject(projectID)
	c.logger.Info("project deleted", zap.String("project_id", projectID))
	return nil
}

// HandleChange applies one inbound change event to the local list.
func (c *Coordinator) HandleChange(ctx context.Context, event domain.ChangeEvent) error {
	var record domain.Project
	if len(event.Record) > 0 {
		if err := json.Unmarshal(event.Record, &record); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "malformed project change event", err)
		}
	}

	switch event.Kind {
	case domain.ChangeInsert:
		c.store.AddProject(record)
	case domain.ChangeUpdate:
		c.store.ReplaceProject(record)
	case domain.ChangeDelete:
		c.store.RemoveProject(record.ID)
	}
	return nil
}
