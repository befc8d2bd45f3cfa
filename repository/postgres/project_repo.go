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

type projectRepository struct {
	pool      *pgxpool.Pool
	publisher repository.EventPublisher
}

// NewProjectRepository instantiates a Postgres-backed project repository.
func NewProjectRepository(pool *pgxpool.Pool, publisher repository.EventPublisher) repository.ProjectRepository {
	return &projectRepository{pool: pool, publisher: publisher}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
	SELECT id, user_id, name, description, created_at, updated_at
	FROM projects
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanProject(row)
}

func (r *projectRepository) List(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	const query = `
	SELECT id, user_id, name, description, created_at, updated_at
	FROM projects
	WHERE ($1 = '' OR user_id = $1)
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Insert(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO projects (id, user_id, name, description)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Description,
	).Scan(&project.CreatedAt, &project.UpdatedAt); err != nil {
		return nil, err
	}

	publishProjectChange(ctx, r.publisher, domain.ChangeInsert, project)
	return project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE projects
	SET name = $2,
		description = $3,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
	).Scan(&project.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProjectNotFound
		}
		return err
	}

	publishProjectChange(ctx, r.publisher, domain.ChangeUpdate, project)
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	// Tasks under the project are removed by the schema's FK cascade.
	const query = `
	DELETE FROM projects
	WHERE id = $1
	RETURNING user_id
	`
	var userID string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProjectNotFound
		}
		return err
	}

	publishProjectChange(ctx, r.publisher, domain.ChangeDelete, &domain.Project{ID: id, UserID: userID})
	return nil
}

func scanProject(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}
