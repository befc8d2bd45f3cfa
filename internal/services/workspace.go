package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/realtime"
	"github.com/tasknest/backend/internal/store"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
	projectsUC "github.com/tasknest/backend/usecase/projects"
	tasksUC "github.com/tasknest/backend/usecase/tasks"
)

// Workspace owns one sync coordinator per active view: a task view per
// watched project and a project view per user. Each view carries its own
// record store and a reconnection-managed change feed subscription; views
// live until released or until the workspace shuts down.
type Workspace struct {
	feed         repository.ChangeFeed
	taskRepo     repository.TaskRepository
	projectRepo  repository.ProjectRepository
	cache        usecase.SnapshotCache
	retryDelay   time.Duration
	journalLimit int
	logger       *zap.Logger

	mu           sync.Mutex
	taskViews    map[string]*taskView
	projectViews map[string]*projectView
	closed       bool
}

type taskView struct {
	coord   *tasksUC.Coordinator
	watcher *realtime.Manager
}

type projectView struct {
	coord   *projectsUC.Coordinator
	watcher *realtime.Manager
}

type WorkspaceConfig struct {
	RetryDelay   time.Duration
	JournalLimit int
}

func NewWorkspace(
	feed repository.ChangeFeed,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	cache usecase.SnapshotCache,
	cfg WorkspaceConfig,
	logger *zap.Logger,
) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		feed:         feed,
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		cache:        cache,
		retryDelay:   cfg.RetryDelay,
		journalLimit: cfg.JournalLimit,
		logger:       logger,
		taskViews:    make(map[string]*taskView),
		projectViews: make(map[string]*projectView),
	}
}

// TaskView returns the coordinator for the given project, mounting it and
// opening its realtime watch on first use.
func (w *Workspace) TaskView(ctx context.Context, userID, projectID string) (*tasksUC.Coordinator, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("workspace is shut down")
	}
	if view, ok := w.taskViews[projectID]; ok {
		w.mu.Unlock()
		return view.coord, nil
	}
	w.mu.Unlock()

	coord := tasksUC.New(projectID, userID, store.New(), w.taskRepo, w.cache,
		usecase.NewJournal(w.journalLimit), w.logger)
	if err := coord.Mount(ctx); err != nil {
		return nil, err
	}

	dispatcher := usecase.NewDispatcher()
	dispatcher.Register(domain.TableTasks, coord.HandleChange)

	watcher := realtime.New(w.feed, repository.Subscription{
		Table:  domain.TableTasks,
		Filter: projectID,
	}, dispatcher.Dispatch, w.retryDelay, w.logger)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("workspace is shut down")
	}
	if existing, ok := w.taskViews[projectID]; ok {
		// Lost the race with a concurrent mount.
		w.mu.Unlock()
		return existing.coord, nil
	}
	w.taskViews[projectID] = &taskView{coord: coord, watcher: watcher}
	w.mu.Unlock()

	watcher.Start()
	return coord, nil
}

// ProjectView returns the coordinator for the given user's project list,
// mounting it and opening its realtime watch on first use.
func (w *Workspace) ProjectView(ctx context.Context, userID string) (*projectsUC.Coordinator, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("workspace is shut down")
	}
	if view, ok := w.projectViews[userID]; ok {
		w.mu.Unlock()
		return view.coord, nil
	}
	w.mu.Unlock()

	coord := projectsUC.New(userID, store.New(), w.projectRepo, w.cache, w.logger)
	if err := coord.Mount(ctx); err != nil {
		return nil, err
	}

	dispatcher := usecase.NewDispatcher()
	dispatcher.Register(domain.TableProjects, coord.HandleChange)

	watcher := realtime.New(w.feed, repository.Subscription{
		Table:  domain.TableProjects,
		Filter: userID,
	}, dispatcher.Dispatch, w.retryDelay, w.logger)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("workspace is shut down")
	}
	if existing, ok := w.projectViews[userID]; ok {
		w.mu.Unlock()
		return existing.coord, nil
	}
	w.projectViews[userID] = &projectView{coord: coord, watcher: watcher}
	w.mu.Unlock()

	watcher.Start()
	return coord, nil
}

// ReleaseTaskView tears down the watch for one project view.
func (w *Workspace) ReleaseTaskView(projectID string) {
	w.mu.Lock()
	view, ok := w.taskViews[projectID]
	delete(w.taskViews, projectID)
	w.mu.Unlock()
	if ok {
		view.watcher.Close()
	}
}

// ResyncAll refreshes every active view against the remote store. Used as
// the periodic anti-entropy backstop for missed realtime events.
func (w *Workspace) ResyncAll(ctx context.Context) error {
	w.mu.Lock()
	taskCoords := make([]*tasksUC.Coordinator, 0, len(w.taskViews))
	for _, view := range w.taskViews {
		taskCoords = append(taskCoords, view.coord)
	}
	projectCoords := make([]*projectsUC.Coordinator, 0, len(w.projectViews))
	for _, view := range w.projectViews {
		projectCoords = append(projectCoords, view.coord)
	}
	w.mu.Unlock()

	var result error
	for _, coord := range taskCoords {
		if err := coord.Refresh(ctx); err != nil {
			result = errors.Join(result, err)
		}
	}
	for _, coord := range projectCoords {
		if err := coord.Refresh(ctx); err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

// ActiveViews reports the number of live task and project views.
func (w *Workspace) ActiveViews() (taskViews, projectViews int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.taskViews), len(w.projectViews)
}

// Close releases every subscription. Further view requests fail.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	taskViews := w.taskViews
	projectViews := w.projectViews
	w.taskViews = make(map[string]*taskView)
	w.projectViews = make(map[string]*projectView)
	w.mu.Unlock()

	for _, view := range taskViews {
		view.watcher.Close()
	}
	for _, view := range projectViews {
		view.watcher.Close()
	}
}
