package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/database"
	"github.com/museme-app/museme-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)

	// BumpVersion advances the project's current-version counter and stamps
	// updated_at. Fails with apperrors.ErrNotFound if the project is gone.
	BumpVersion(ctx context.Context, id uuid.UUID, newVersion int) error

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) ProjectRepository
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct {
	q database.Querier
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{q: db.Pool}
}

// WithTx returns a copy bound to tx.
func (r *projectRepository) WithTx(tx pgx.Tx) ProjectRepository {
	return &projectRepository{q: tx}
}

// Create inserts a new project.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.CurrentVersion == 0 {
		project.CurrentVersion = 1
	}

	query := `
		INSERT INTO projects (id, name, description, created_at, updated_at, current_version, base_song_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.CreatedAt,
		project.UpdatedAt,
		project.CurrentVersion,
		project.BaseSongID,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := projectSelect + ` WHERE id = $1`

	var p models.Project
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CurrentVersion,
		&p.BaseSongID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// List returns all projects, most recently updated first.
func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.q.Query(ctx, projectSelect+` ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.CurrentVersion,
			&p.BaseSongID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}
	return projects, nil
}

// BumpVersion advances current_version and stamps updated_at.
func (r *projectRepository) BumpVersion(ctx context.Context, id uuid.UUID, newVersion int) error {
	query := `
		UPDATE projects
		SET current_version = $2, updated_at = now()
		WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, newVersion)
	if err != nil {
		return fmt.Errorf("failed to bump project version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const projectSelect = `
	SELECT id, name, COALESCE(description, ''), created_at, updated_at, current_version, base_song_id
	FROM projects`

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
