package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// publishTaskChange announces a committed task mutation on the project's
// change channel. Best-effort: a failed publish never fails the mutation,
// the periodic resync sweep covers missed events.
func publishTaskChange(ctx context.Context, publisher repository.EventPublisher, kind domain.ChangeKind, task *domain.Task) {
	if publisher == nil || task == nil {
		return
	}
	record, err := json.Marshal(task)
	if err != nil {
		return
	}
	_ = publisher.Publish(ctx, domain.ChangeEvent{
		Table:      domain.TableTasks,
		Kind:       kind,
		Record:     record,
		OccurredAt: time.Now().UTC(),
	}, task.ProjectID)
}

// publishProjectChange announces a committed project mutation on the
// owner's change channel.
func publishProjectChange(ctx context.Context, publisher repository.EventPublisher, kind domain.ChangeKind, project *domain.Project) {
	if publisher == nil || project == nil {
		return
	}
	record, err := json.Marshal(project)
	if err != nil {
		return
	}
	_ = publisher.Publish(ctx, domain.ChangeEvent{
		Table:      domain.TableProjects,
		Kind:       kind,
		Record:     record,
		OccurredAt: time.Now().UTC(),
	}, project.UserID)
}
