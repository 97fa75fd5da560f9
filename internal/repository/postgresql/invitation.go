package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/invitation"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	inviteTokenConstraint = "project_invites_token_key"

	invitationColumns = `id, project_id, invited_by_id, email, token, expires_at, accepted_at, created_at, updated_at`

	invitationDetailSelect = `
		SELECT
			pi.id, pi.project_id, pi.invited_by_id, pi.email, pi.token,
			pi.expires_at, pi.accepted_at, pi.created_at, pi.updated_at,
			p.name, p.slug,
			u.id, u.email, u.display_name, u.first_name, u.last_name
		FROM project_invites pi
		JOIN projects p ON p.id = pi.project_id
		LEFT JOIN users u ON u.id = pi.invited_by_id
	`
)

type invitationRepositoryImpl struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository instance
func NewInvitationRepository(db *database.DB) invitation.InvitationRepository {
	return &invitationRepositoryImpl{db: db}
}

// Upsert implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) Upsert(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO project_invites (id, project_id, invited_by_id, email, token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, email) DO UPDATE
		SET token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at,
			invited_by_id = EXCLUDED.invited_by_id,
			accepted_at = NULL,
			updated_at = NOW()
		RETURNING ` + invitationColumns + `, (xmax = 0) AS inserted
	`

	var (
		stored   invitation.Invitation
		inserted bool
	)
	row := q.QueryRow(ctx, query, inv.ID, inv.ProjectID, inv.InvitedByID, inv.Email, inv.Token, inv.ExpiresAt)
	if err := scanInvitation(row, &stored, &inserted); err != nil {
		if isUniqueViolation(err, inviteTokenConstraint) {
			return invitation.Invitation{}, false, invitation.ErrTokenConflict
		}
		return invitation.Invitation{}, false, fmt.Errorf("failed to upsert invitation: %w", err)
	}

	return stored, inserted, nil
}

// GetByTokenWithDetails implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByTokenWithDetails(ctx context.Context, token string) (invitation.InvitationWithDetails, error) {
	q := GetQuerier(ctx, r.db)

	inv, err := scanInvitationWithDetails(q.QueryRow(ctx, invitationDetailSelect+` WHERE pi.token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invitation.InvitationWithDetails{}, invitation.ErrInvitationNotFound
		}
		return invitation.InvitationWithDetails{}, fmt.Errorf("failed to get invitation by token: %w", err)
	}

	return inv, nil
}

// GetByIDAndEmail implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByIDAndEmail(ctx context.Context, id, email string) (invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM project_invites WHERE id = $1 AND email = $2`

	var inv invitation.Invitation
	if err := scanInvitation(q.QueryRow(ctx, query, id, email), &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return invitation.Invitation{}, invitation.ErrInvitationNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// GetByProjectAndEmail implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByProjectAndEmail(ctx context.Context, projectID, email string) (invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM project_invites WHERE project_id = $1 AND email = $2`

	var inv invitation.Invitation
	if err := scanInvitation(q.QueryRow(ctx, query, projectID, email), &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return invitation.Invitation{}, invitation.ErrInvitationNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListPendingByEmail implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]invitation.InvitationWithDetails, error) {
	q := GetQuerier(ctx, r.db)

	query := invitationDetailSelect + `
		WHERE pi.email = $1
			AND pi.accepted_at IS NULL
			AND pi.expires_at > $2
		ORDER BY pi.expires_at ASC, pi.id ASC
	`

	rows, err := q.Query(ctx, query, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}
	defer rows.Close()

	var invitations []invitation.InvitationWithDetails
	for rows.Next() {
		inv, err := scanInvitationWithDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invitations: %w", err)
	}

	return invitations, nil
}

// Delete implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) Delete(ctx context.Context, id, token string) error {
	q := GetQuerier(ctx, r.db)

	var deletedID string
	err := q.QueryRow(ctx, `DELETE FROM project_invites WHERE id = $1 AND token = $2 RETURNING id`, id, token).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return invitation.ErrInvitationNotFound
		}
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	return nil
}

// DeleteExpired implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM project_invites WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	return tag.RowsAffected(), nil
}

// scanInvitation reads invitationColumns into inv followed by any extra destinations.
func scanInvitation(row pgx.Row, inv *invitation.Invitation, extra ...any) error {
	var invitedByID *string
	dest := []any{
		&inv.ID, &inv.ProjectID, &invitedByID, &inv.Email, &inv.Token,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if invitedByID != nil {
		inv.InvitedByID = *invitedByID
	}
	return nil
}

func scanInvitationWithDetails(row pgx.Row) (invitation.InvitationWithDetails, error) {
	var (
		inv          invitation.InvitationWithDetails
		invitedByID  *string
		inviterID    *string
		inviterEmail *string
		inviter      invitation.Inviter
	)

	err := row.Scan(
		&inv.ID, &inv.ProjectID, &invitedByID, &inv.Email, &inv.Token,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.ProjectName, &inv.ProjectSlug,
		&inviterID, &inviterEmail, &inviter.DisplayName, &inviter.FirstName, &inviter.LastName,
	)
	if err != nil {
		return invitation.InvitationWithDetails{}, err
	}

	if invitedByID != nil {
		inv.InvitedByID = *invitedByID
	}
	if inviterID != nil && inviterEmail != nil {
		inviter.ID = *inviterID
		inviter.Email = *inviterEmail
		inv.Inviter = &inviter
	}

	return inv, nil
}
