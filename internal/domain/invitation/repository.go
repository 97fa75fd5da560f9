package invitation

import (
	"context"
	"time"
)

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Upsert inserts the invite or, when one already exists for
	// (ProjectID, Email), rotates its token and expiry in place and clears
	// AcceptedAt. The stored row is returned with created=true on insert.
	Upsert(ctx context.Context, inv Invitation) (stored Invitation, created bool, err error)

	// GetByTokenWithDetails retrieves an invitation by token with project and inviter details
	GetByTokenWithDetails(ctx context.Context, token string) (InvitationWithDetails, error)

	// GetByIDAndEmail retrieves an invitation addressed to email
	GetByIDAndEmail(ctx context.Context, id, email string) (Invitation, error)

	// GetByProjectAndEmail retrieves the invite for a (project, email) pair
	GetByProjectAndEmail(ctx context.Context, projectID, email string) (Invitation, error)

	// ListPendingByEmail lists unconsumed invites for email that are still
	// valid at now, soonest expiry first.
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]InvitationWithDetails, error)

	// Delete removes the invite only if it still carries token. It returns
	// ErrInvitationNotFound when nothing was deleted.
	Delete(ctx context.Context, id, token string) error

	// DeleteExpired removes every invite whose expiry is at or before the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
