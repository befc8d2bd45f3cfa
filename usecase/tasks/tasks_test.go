package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/store"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

type fakeTaskRepo struct {
	serverTasks []domain.Task

	insertErr error
	upsertErr error
	deleteErr error
	listErr   error

	insertCalls int
	upsertCalls [][]domain.Task
	deleteCalls []string
	listCalls   int
}

func (f *fakeTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Task(nil), f.serverTasks...), nil
}

func (f *fakeTaskRepo) Insert(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := *task
	created.ID = "server-id"
	f.serverTasks = append(f.serverTasks, created)
	return &created, nil
}

func (f *fakeTaskRepo) UpsertBatch(ctx context.Context, tasks []domain.Task) error {
	f.upsertCalls = append(f.upsertCalls, append([]domain.Task(nil), tasks...))
	return f.upsertErr
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

type fakeCache struct {
	tasks    map[string][]domain.Task
	projects map[string][]domain.Project
	saves    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		tasks:    make(map[string][]domain.Task),
		projects: make(map[string][]domain.Project),
	}
}

func (f *fakeCache) SaveTasks(_ context.Context, projectID string, tasks []domain.Task) error {
	f.saves++
	f.tasks[projectID] = append([]domain.Task(nil), tasks...)
	return nil
}

func (f *fakeCache) LoadTasks(_ context.Context, projectID string) ([]domain.Task, bool, error) {
	tasks, ok := f.tasks[projectID]
	return tasks, ok, nil
}

func (f *fakeCache) SaveProjects(_ context.Context, userID string, projects []domain.Project) error {
	f.projects[userID] = append([]domain.Project(nil), projects...)
	return nil
}

func (f *fakeCache) LoadProjects(_ context.Context, userID string) ([]domain.Project, bool, error) {
	projects, ok := f.projects[userID]
	return projects, ok, nil
}

func ptr(s string) *string { return &s }

func serverTask(id string, parent *string, completed bool) domain.Task {
	return domain.Task{ID: id, ProjectID: "p1", UserID: "u1", Title: "task " + id, ParentID: parent, Completed: completed}
}

func newCoordinator(repo *fakeTaskRepo, cache usecase.SnapshotCache) *Coordinator {
	return New("p1", "u1", store.New(), repo, cache, usecase.NewJournal(16), nil)
}

func TestRefresh_ReplacesStoreWholesale(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{serverTask("a", nil, false)}}
	c := newCoordinator(repo, nil)

	c.Store().SetTasks([]domain.Task{serverTask("stale", nil, true)})
	require.NoError(t, c.Refresh(context.Background()))

	tasks := c.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].ID)
}

func TestMount_PrimesFromSnapshotBeforeFetch(t *testing.T) {
	cache := newFakeCache()
	cache.tasks["p1"] = []domain.Task{serverTask("cached", nil, false)}

	repo := &fakeTaskRepo{listErr: errors.New("network down")}
	c := newCoordinator(repo, cache)

	err := c.Mount(context.Background())
	require.Error(t, err)

	// The warm-start snapshot survives the failed fetch.
	tasks := c.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "cached", tasks[0].ID)
}

func TestMount_FetchOverwritesSnapshotAndSavesIt(t *testing.T) {
	cache := newFakeCache()
	cache.tasks["p1"] = []domain.Task{serverTask("cached", nil, false)}

	repo := &fakeTaskRepo{serverTasks: []domain.Task{serverTask("fresh", nil, false)}}
	c := newCoordinator(repo, cache)

	require.NoError(t, c.Mount(context.Background()))

	tasks := c.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "fresh", tasks[0].ID)
	assert.Equal(t, "fresh", cache.tasks["p1"][0].ID)
}

func TestCreate_EmptyTitleRejectedBeforeRemoteCall(t *testing.T) {
	repo := &fakeTaskRepo{}
	c := newCoordinator(repo, nil)

	_, err := c.Create(context.Background(), "   ", "desc", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, repo.insertCalls)
	assert.Empty(t, c.Store().Tasks())
}

func TestCreate_CommitsServerRecordOnly(t *testing.T) {
	repo := &fakeTaskRepo{}
	c := newCoordinator(repo, nil)

	created, err := c.Create(context.Background(), "  buy milk  ", " now ", nil)
	require.NoError(t, err)
	assert.Equal(t, "server-id", created.ID)
	assert.Equal(t, "buy milk", created.Title)
	assert.Equal(t, "now", created.Description)

	stored, ok := c.Store().Task("server-id")
	require.True(t, ok)
	assert.Equal(t, "buy milk", stored.Title)
}

func TestCreate_FailureLeavesStoreUnchanged(t *testing.T) {
	repo := &fakeTaskRepo{insertErr: errors.New("insert failed")}
	c := newCoordinator(repo, nil)

	_, err := c.Create(context.Background(), "title", "", nil)
	require.Error(t, err)
	assert.Empty(t, c.Store().Tasks())
}

func TestToggle_CascadesOptimisticallyAndUpsertsOnce(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{
		serverTask("A", nil, false),
		serverTask("B", ptr("A"), false),
		serverTask("C", ptr("B"), false),
	}}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Toggle(context.Background(), "A"))

	for _, id := range []string{"A", "B", "C"} {
		record, ok := c.Store().Task(id)
		require.True(t, ok)
		assert.True(t, record.Completed, "task %s", id)
	}

	require.Len(t, repo.upsertCalls, 1)
	assert.Len(t, repo.upsertCalls[0], 3)
}

func TestToggle_FailureCompensatesWithRefetch(t *testing.T) {
	serverTruth := []domain.Task{
		serverTask("A", nil, false),
		serverTask("B", ptr("A"), false),
	}
	repo := &fakeTaskRepo{serverTasks: serverTruth, upsertErr: errors.New("upsert failed")}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	err := c.Toggle(context.Background(), "A")
	require.Error(t, err)

	// The store ends up matching what a fetch returns, not the optimistic value.
	fetched, listErr := repo.List(context.Background(), repository.TaskFilter{ProjectID: "p1"})
	require.NoError(t, listErr)
	assert.Equal(t, fetched, c.Store().Tasks())
	for _, record := range c.Store().Tasks() {
		assert.False(t, record.Completed)
	}
}

func TestToggle_UnknownTaskIsNotFound(t *testing.T) {
	repo := &fakeTaskRepo{}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	err := c.Toggle(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Empty(t, repo.upsertCalls)
}

func TestDelete_RemovesWholeSubtreeLocally(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{
		serverTask("A", nil, false),
		serverTask("B", ptr("A"), false),
		serverTask("C", ptr("B"), false),
		serverTask("other", nil, false),
	}}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Delete(context.Background(), "A"))

	// One remote delete for the target; descendants fall to the remote cascade.
	assert.Equal(t, []string{"A"}, repo.deleteCalls)

	tasks := c.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "other", tasks[0].ID)
}

func TestDelete_FailureLeavesStoreUntouched(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{serverTask("A", nil, false)}, deleteErr: errors.New("delete failed")}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	err := c.Delete(context.Background(), "A")
	require.Error(t, err)
	assert.Len(t, c.Store().Tasks(), 1)
}

func TestDelete_AlreadyGoneIsNoOp(t *testing.T) {
	repo := &fakeTaskRepo{}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Delete(context.Background(), "ghost"))
	assert.Empty(t, repo.deleteCalls)
}

func TestToggle_JournalTransitions(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{serverTask("A", nil, false)}}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Toggle(context.Background(), "A"))
	entries := c.Journal().Recent()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MutationConfirmed, entries[0].State)

	repo.upsertErr = errors.New("upsert failed")
	require.Error(t, c.Toggle(context.Background(), "A"))
	entries = c.Journal().Recent()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.MutationRolledBack, entries[1].State)
}

func TestHierarchy_BuildsFromStore(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{
		serverTask("A", nil, false),
		serverTask("B", ptr("A"), false),
	}}
	c := newCoordinator(repo, nil)
	require.NoError(t, c.Refresh(context.Background()))

	roots := c.Hierarchy()
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Subtasks, 1)
	assert.Equal(t, "B", roots[0].Subtasks[0].ID)
}

func TestHandleChange_TriggersRefetch(t *testing.T) {
	repo := &fakeTaskRepo{serverTasks: []domain.Task{serverTask("A", nil, true)}}
	c := newCoordinator(repo, nil)

	require.NoError(t, c.HandleChange(context.Background(), domain.ChangeEvent{Table: domain.TableTasks, Kind: domain.ChangeUpdate}))

	assert.Equal(t, 1, repo.listCalls)
	record, ok := c.Store().Task("A")
	require.True(t, ok)
	assert.True(t, record.Completed)
}
