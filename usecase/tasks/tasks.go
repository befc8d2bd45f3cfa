// Package tasks implements the sync coordinator for one project's task
// view: initial fetch, optimistic mutation, remote commit and refetch-based
// reconciliation against the remote store.
package tasks

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/store"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

const (
	mutationToggle = "toggle_completion"
	mutationCreate = "create_task"
	mutationDelete = "delete_task"
)

// Coordinator owns the record store for a single project scope.
type Coordinator struct {
	projectID string
	userID    string

	store   *store.Store
	remote  repository.TaskRepository
	cache   usecase.SnapshotCache
	journal *usecase.Journal
	logger  *zap.Logger
}

// New builds a coordinator. cache may be nil (no warm start), journal may
// be nil (no mutation tracking).
func New(projectID, userID string, st *store.Store, remote repository.TaskRepository, cache usecase.SnapshotCache, journal *usecase.Journal, logger *zap.Logger) *Coordinator {
	if st == nil {
		st = store.New()
	}
	if journal == nil {
		journal = usecase.NewJournal(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		projectID: projectID,
		userID:    userID,
		store:     st,
		remote:    remote,
		cache:     cache,
		journal:   journal,
		logger:    logger.With(zap.String("project_id", projectID)),
	}
}

// Store exposes the coordinator's record store for observers.
func (c *Coordinator) Store() *store.Store { return c.store }

// Journal exposes the mutation journal.
func (c *Coordinator) Journal() *usecase.Journal { return c.journal }

// ProjectID returns the project scope this coordinator serves.
func (c *Coordinator) ProjectID() string { return c.projectID }

// Mount primes the store from the snapshot cache, if one exists, then
// performs the authoritative fetch. A failed fetch over a warm cache leaves
// the stale records in place; the next refresh corrects them.
func (c *Coordinator) Mount(ctx context.Context) error {
	if c.cache != nil {
		if cached, ok, err := c.cache.LoadTasks(ctx, c.projectID); err == nil && ok {
			c.store.SetTasks(cached)
		}
	}
	return c.Refresh(ctx)
}

// Refresh loads the full task set for the project, replacing the store
// wholesale. It is the reconciliation step after any remote change
// notification and the compensating action after a failed toggle.
func (c *Coordinator) Refresh(ctx context.Context) error {
	fetched, err := c.remote.List(ctx, repository.TaskFilter{ProjectID: c.projectID})
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "failed to fetch tasks", err)
	}
	c.store.SetTasks(fetched)

	if c.cache != nil {
		if err := c.cache.SaveTasks(ctx, c.projectID, fetched); err != nil {
			c.logger.Warn("snapshot save failed", zap.Error(err))
		}
	}
	return nil
}

// Hierarchy materializes the current tree from the flat store.
func (c *Coordinator) Hierarchy() []domain.Task {
	return domain.BuildHierarchy(c.store.Tasks())
}

// Create inserts a task remotely and commits it locally only after the
// server confirms. An empty trimmed title is rejected before any I/O.
// Unlike project creation there is no optimistic add: a task id minted
// locally would race the realtime refetch and flicker.
func (c *Coordinator) Create(ctx context.Context, title, description string, parentID *string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	candidate := &domain.Task{
		ProjectID:   c.projectID,
		UserID:      c.userID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Completed:   false,
		ParentID:    parentID,
	}

	entry := c.journal.Begin(mutationCreate, nil)
	created, err := c.remote.Insert(ctx, candidate)
	if err != nil {
		c.journal.Rollback(entry)
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "failed to create task", err)
	}

	c.store.AddTask(*created)
	c.journal.Confirm(entry)
	c.logger.Info("task created", zap.String("task_id", created.ID))
	return created, nil
}

// Delete removes the task and, through the remote store's referential
// cascade, all of its descendants. The local store drops the same set only
// after the remote delete succeeds.
func (c *Coordinator) Delete(ctx context.Context, taskID string) error {
	set, err := domain.DeletionSet(c.store.Tasks(), taskID)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		// Already gone, deleting again is a safe no-op.
		return nil
	}

	entry := c.journal.Begin(mutationDelete, idsOf(set))
	if err := c.remote.Delete(ctx, taskID); err != nil {
		c.journal.Rollback(entry)
		return domain.WrapError(domain.ErrCodeUnavailable, "failed to delete task", err)
	}

	c.store.RemoveTasks(set)
	c.journal.Confirm(entry)
	c.logger.Info("task deleted", zap.String("task_id", taskID), zap.Int("removed", len(set)))
	return nil
}

// Toggle inverts the task's completion and cascades the new value to every
// descendant. The cascade set is applied to the store before the remote
// call (optimistic); a remote failure is compensated by a full refetch
// rather than a fine-grained rollback.
func (c *Coordinator) Toggle(ctx context.Context, taskID string) error {
	current, ok := c.store.Task(taskID)
	if !ok {
		return domain.ErrTaskNotFound
	}

	updated, err := domain.CascadeCompletion(c.store.Tasks(), taskID, !current.Completed)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	entry := c.journal.Begin(mutationToggle, taskIDs(updated))
	for _, record := range updated {
		c.store.ReplaceTask(record)
	}

	if err := c.remote.UpsertBatch(ctx, updated); err != nil {
		c.journal.Rollback(entry)
		if refreshErr := c.Refresh(ctx); refreshErr != nil {
			c.logger.Error("compensating refetch failed", zap.Error(refreshErr))
		}
		return domain.WrapError(domain.ErrCodeUnavailable, "failed to update tasks", err)
	}

	c.journal.Confirm(entry)
	c.logger.Info("completion toggled",
		zap.String("task_id", taskID),
		zap.Bool("completed", !current.Completed),
		zap.Int("cascaded", len(updated)))
	return nil
}

// HandleChange is the refresh path fed by realtime notifications: any
// change on the watched project resolves by refetch, converging with
// in-flight optimistic mutations through upsert idempotence.
func (c *Coordinator) HandleChange(ctx context.Context, event domain.ChangeEvent) error {
	return c.Refresh(ctx)
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func idsOf(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
