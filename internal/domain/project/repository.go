package project

import "context"

// ProjectRepository resolves projects and manages their membership.
type ProjectRepository interface {
	// GetOwnedBySlug returns ErrProjectNotFound unless ownerID owns a project with slug.
	GetOwnedBySlug(ctx context.Context, ownerID, slug string) (Project, error)

	// IsMember reports whether userID belongs to the project, owners included.
	IsMember(ctx context.Context, projectID, userID string) (bool, error)

	// EnsureMembership grants membership; granting twice is a no-op.
	EnsureMembership(ctx context.Context, projectID, userID string) error

	Create(ctx context.Context, p Project) (Project, error)
}
