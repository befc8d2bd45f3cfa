package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
)

func TestDispatcher_RoutesByTable(t *testing.T) {
	d := NewDispatcher()

	var taskEvents, projectEvents int
	d.Register(domain.TableTasks, func(ctx context.Context, event domain.ChangeEvent) error {
		taskEvents++
		return nil
	})
	d.Register(domain.TableProjects, func(ctx context.Context, event domain.ChangeEvent) error {
		projectEvents++
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), domain.ChangeEvent{Table: domain.TableTasks, Kind: domain.ChangeInsert}))
	require.NoError(t, d.Dispatch(context.Background(), domain.ChangeEvent{Table: domain.TableTasks, Kind: domain.ChangeDelete}))
	require.NoError(t, d.Dispatch(context.Background(), domain.ChangeEvent{Table: domain.TableProjects, Kind: domain.ChangeUpdate}))

	assert.Equal(t, 2, taskEvents)
	assert.Equal(t, 1, projectEvents)
}

func TestDispatcher_UnknownTableIsAnError(t *testing.T) {
	d := NewDispatcher()
	err := d.Dispatch(context.Background(), domain.ChangeEvent{Table: "sessions"})
	require.Error(t, err)
}

func TestDispatcher_HandlerErrorPropagates(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("refetch failed")
	d.Register(domain.TableTasks, func(ctx context.Context, event domain.ChangeEvent) error {
		return boom
	})

	err := d.Dispatch(context.Background(), domain.ChangeEvent{Table: domain.TableTasks})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_ReRegisterReplacesHandler(t *testing.T) {
	d := NewDispatcher()

	var first, second int
	d.Register(domain.TableTasks, func(ctx context.Context, event domain.ChangeEvent) error {
		first++
		return nil
	})
	d.Register(domain.TableTasks, func(ctx context.Context, event domain.ChangeEvent) error {
		second++
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), domain.ChangeEvent{Table: domain.TableTasks}))
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}
