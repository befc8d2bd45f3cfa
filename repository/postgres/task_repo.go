package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type taskRepository struct {
	pool      *pgxpool.Pool
	publisher repository.EventPublisher
}

// NewTaskRepository returns a Postgres-backed implementation of
// TaskRepository. Every committed mutation is announced through the
// publisher so subscribed clients can reconcile.
func NewTaskRepository(pool *pgxpool.Pool, publisher repository.EventPublisher) repository.TaskRepository {
	return &taskRepository{pool: pool, publisher: publisher}
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT id, project_id, user_id, title, description, completed, parent_id, created_at, updated_at
	FROM tasks
	WHERE ($1 = '' OR project_id = $1)
	  AND ($2 = '' OR user_id = $2)
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, filter.ProjectID, filter.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Insert(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, project_id, user_id, title, description, completed, parent_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.ProjectID,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		task.ParentID,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	r.announce(ctx, domain.ChangeInsert, task)
	return task, nil
}

func (r *taskRepository) UpsertBatch(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	const query = `
	INSERT INTO tasks (id, project_id, user_id, title, description, completed, parent_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		description = EXCLUDED.description,
		completed = EXCLUDED.completed,
		parent_id = EXCLUDED.parent_id,
		updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, task := range tasks {
		batch.Queue(query,
			task.ID,
			task.ProjectID,
			task.UserID,
			task.Title,
			task.Description,
			task.Completed,
			task.ParentID,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range tasks {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	for i := range tasks {
		r.announce(ctx, domain.ChangeUpdate, &tasks[i])
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	// Descendants go with the target through the parent_id FK cascade.
	const query = `
	DELETE FROM tasks
	WHERE id = $1
	RETURNING project_id, user_id
	`
	var projectID, userID string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&projectID, &userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	r.announce(ctx, domain.ChangeDelete, &domain.Task{ID: id, ProjectID: projectID, UserID: userID})
	return nil
}

func (r *taskRepository) announce(ctx context.Context, kind domain.ChangeKind, task *domain.Task) {
	publishTaskChange(ctx, r.publisher, kind, task)
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.ParentID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
