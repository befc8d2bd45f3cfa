package projects

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/store"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

type fakeProjectRepo struct {
	serverProjects []domain.Project

	insertErr error
	updateErr error
	deleteErr error
	listErr   error

	insertCalls int
	updateCalls int
	deleteCalls []string
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	for _, project := range f.serverProjects {
		if project.ID == id {
			p := project
			return &p, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (f *fakeProjectRepo) List(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Project(nil), f.serverProjects...), nil
}

func (f *fakeProjectRepo) Insert(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := *project
	f.serverProjects = append(f.serverProjects, created)
	return &created, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, project *domain.Project) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.serverProjects {
		if f.serverProjects[i].ID == project.ID {
			f.serverProjects[i] = *project
			return nil
		}
	}
	return domain.ErrProjectNotFound
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

var _ usecase.SnapshotCache = (*nopCache)(nil)

type nopCache struct{}

func (nopCache) SaveTasks(context.Context, string, []domain.Task) error { return nil }
func (nopCache) LoadTasks(context.Context, string) ([]domain.Task, bool, error) {
	return nil, false, nil
}
func (nopCache) SaveProjects(context.Context, string, []domain.Project) error { return nil }
func (nopCache) LoadProjects(context.Context, string) ([]domain.Project, bool, error) {
	return nil, false, nil
}

func newCoordinator(repo *fakeProjectRepo) *Coordinator {
	return New("u1", store.New(), repo, nopCache{}, nil)
}

func TestCreate_OptimisticRecordConfirmed(t *testing.T) {
	repo := &fakeProjectRepo{}
	c := newCoordinator(repo)

	created, err := c.Create(context.Background(), "  Chores  ", "around the house")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Chores", created.Name)

	projects := c.List()
	require.Len(t, projects, 1)
	assert.Equal(t, created.ID, projects[0].ID)
	assert.Equal(t, 1, repo.insertCalls)
}

func TestCreate_FailureRemovesOptimisticRecord(t *testing.T) {
	repo := &fakeProjectRepo{insertErr: errors.New("insert failed")}
	c := newCoordinator(repo)

	_, err := c.Create(context.Background(), "Chores", "")
	require.Error(t, err)
	assert.Empty(t, c.List())
}

func TestCreate_EmptyNameRejectedBeforeRemoteCall(t *testing.T) {
	repo := &fakeProjectRepo{}
	c := newCoordinator(repo)

	_, err := c.Create(context.Background(), "   ", "")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, repo.insertCalls)
	assert.Empty(t, c.List())
}

func TestUpdate_RenamesOptimistically(t *testing.T) {
	repo := &fakeProjectRepo{serverProjects: []domain.Project{{ID: "p1", UserID: "u1", Name: "one"}}}
	c := newCoordinator(repo)
	require.NoError(t, c.Refresh(context.Background()))

	updated, err := c.Update(context.Background(), "p1", "  renamed  ", "")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	projects := c.List()
	require.Len(t, projects, 1)
	assert.Equal(t, "renamed", projects[0].Name)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestUpdate_FailureRestoresPreviousRecord(t *testing.T) {
	repo := &fakeProjectRepo{
		serverProjects: []domain.Project{{ID: "p1", UserID: "u1", Name: "one"}},
		updateErr:      errors.New("update failed"),
	}
	c := newCoordinator(repo)
	require.NoError(t, c.Refresh(context.Background()))

	_, err := c.Update(context.Background(), "p1", "renamed", "")
	require.Error(t, err)

	projects := c.List()
	require.Len(t, projects, 1)
	assert.Equal(t, "one", projects[0].Name)
}

func TestUpdate_UnknownProjectIsNotFound(t *testing.T) {
	repo := &fakeProjectRepo{}
	c := newCoordinator(repo)

	_, err := c.Update(context.Background(), "ghost", "renamed", "")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Zero(t, repo.updateCalls)
}

func TestDelete_RemoteThenLocal(t *testing.T) {
	repo := &fakeProjectRepo{serverProjects: []domain.Project{{ID: "p1", UserID: "u1", Name: "one"}}}
	c := newCoordinator(repo)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Delete(context.Background(), "p1"))
	assert.Equal(t, []string{"p1"}, repo.deleteCalls)
	assert.Empty(t, c.List())
}

func TestDelete_FailureKeepsLocalRecord(t *testing.T) {
	repo := &fakeProjectRepo{
		serverProjects: []domain.Project{{ID: "p1", UserID: "u1", Name: "one"}},
		deleteErr:      errors.New("delete failed"),
	}
	c := newCoordinator(repo)
	require.NoError(t, c.Refresh(context.Background()))

	require.Error(t, c.Delete(context.Background(), "p1"))
	assert.Len(t, c.List(), 1)
}

func TestHandleChange_AppliesPerEvent(t *testing.T) {
	repo := &fakeProjectRepo{}
	c := newCoordinator(repo)

	event := func(kind domain.ChangeKind, project domain.Project) domain.ChangeEvent {
		record, err := json.Marshal(project)
		require.NoError(t, err)
		return domain.ChangeEvent{Table: domain.TableProjects, Kind: kind, Record: record}
	}

	require.NoError(t, c.HandleChange(context.Background(), event(domain.ChangeInsert, domain.Project{ID: "p1", Name: "one"})))
	require.Len(t, c.List(), 1)

	require.NoError(t, c.HandleChange(context.Background(), event(domain.ChangeUpdate, domain.Project{ID: "p1", Name: "renamed"})))
	projects := c.List()
	require.Len(t, projects, 1)
	assert.Equal(t, "renamed", projects[0].Name)

	require.NoError(t, c.HandleChange(context.Background(), event(domain.ChangeDelete, domain.Project{ID: "p1"})))
	assert.Empty(t, c.List())
}

func TestHandleChange_MalformedRecordIsRejected(t *testing.T) {
	c := newCoordinator(&fakeProjectRepo{})

	err := c.HandleChange(context.Background(), domain.ChangeEvent{
		Table:  domain.TableProjects,
		Kind:   domain.ChangeInsert,
		Record: json.RawMessage(`{"id":`),
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
