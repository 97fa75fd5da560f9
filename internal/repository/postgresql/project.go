package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type projectRepositoryImpl struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepositoryImpl{db: db}
}

// GetOwnedBySlug implements project.ProjectRepository.
func (r *projectRepositoryImpl) GetOwnedBySlug(ctx context.Context, ownerID, slug string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, owner_id, name, slug, created_at, updated_at
		FROM projects
		WHERE owner_id = $1 AND slug = $2
	`

	var p project.Project
	err := q.QueryRow(ctx, query, ownerID, slug).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Slug, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to get project by slug: %w", err)
	}

	return p, nil
}

// IsMember implements project.ProjectRepository.
func (r *projectRepositoryImpl) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2
		) OR EXISTS (
			SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2
		)
	`

	var isMember bool
	if err := q.QueryRow(ctx, query, projectID, userID).Scan(&isMember); err != nil {
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}

	return isMember, nil
}

// EnsureMembership implements project.ProjectRepository.
func (r *projectRepositoryImpl) EnsureMembership(ctx context.Context, projectID, userID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO project_members (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}

	return nil
}

// Create implements project.ProjectRepository.
func (r *projectRepositoryImpl) Create(ctx context.Context, p project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO projects (owner_id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, slug, created_at, updated_at
	`

	var created project.Project
	err := q.QueryRow(ctx, query, p.OwnerID, p.Name, p.Slug).Scan(
		&created.ID, &created.OwnerID, &created.Name, &created.Slug, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return project.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	return created, nil
}
