package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/config"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/invitation"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/token"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

var _ invitation.InvitationService = (*InvitationServiceImpl)(nil)

// maxTokenAttempts bounds regeneration after a token uniqueness collision.
const maxTokenAttempts = 3

type InvitationServiceImpl struct {
	tx             database.Transactor
	invitationRepo invitation.InvitationRepository
	projectRepo    project.ProjectRepository
	userRepo       user.UserRepository
	notifier       invitation.Notifier
	cfg            config.InvitationConfig

	now      func() time.Time
	newToken func() (string, error)
	newID    func() (string, error)
}

func NewInvitationService(
	tx database.Transactor,
	invitationRepo invitation.InvitationRepository,
	projectRepo project.ProjectRepository,
	userRepo user.UserRepository,
	notifier invitation.Notifier,
	cfg config.InvitationConfig,
) *InvitationServiceImpl {
	return &InvitationServiceImpl{
		tx:             tx,
		invitationRepo: invitationRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		cfg:            cfg,
		now:            time.Now,
		newToken:       token.NewInvite,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// Create implements invitation.InvitationService.
func (s *InvitationServiceImpl) Create(ctx context.Context, req invitation.CreateRequest) (invitation.CreateResponse, error) {
	proj, err := s.projectRepo.GetOwnedBySlug(ctx, req.OwnerID, req.ProjectSlug)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return invitation.CreateResponse{}, invitation.ErrProjectNotFound
		}
		return invitation.CreateResponse{}, fmt.Errorf("failed to resolve project: %w", err)
	}

	email := validator.NormalizeEmail(req.Email)
	if email == "" {
		return invitation.CreateResponse{}, invitation.ErrEmailRequired
	}
	if err := req.Validate(); err != nil {
		return invitation.CreateResponse{}, err
	}

	inviter, err := s.userRepo.GetByID(ctx, req.OwnerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return invitation.CreateResponse{}, invitation.ErrInviterNotFound
		}
		return invitation.CreateResponse{}, fmt.Errorf("failed to resolve inviter: %w", err)
	}

	if validator.NormalizeEmail(inviter.Email) == email {
		return invitation.CreateResponse{}, invitation.ErrSelfInvite
	}

	invitee, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		isMember, err := s.projectRepo.IsMember(ctx, proj.ID, invitee.ID)
		if err != nil {
			return invitation.CreateResponse{}, fmt.Errorf("failed to check membership: %w", err)
		}
		if isMember {
			return invitation.CreateResponse{}, invitation.ErrAlreadyMember
		}
	case errors.Is(err, user.ErrUserNotFound):
	default:
		return invitation.CreateResponse{}, fmt.Errorf("failed to resolve invitee: %w", err)
	}

	stored, created, err := s.issue(ctx, proj.ID, inviter.ID, email)
	if err != nil {
		return invitation.CreateResponse{}, err
	}

	slog.InfoContext(ctx, "Invitation issued",
		"invite_id", stored.ID,
		"project_id", proj.ID,
		"reissued", !created,
		"expires_at", stored.ExpiresAt,
	)

	link := s.inviteLink(stored.Token)
	if err := s.notifier.SendProjectInvitation(ctx, email, inviter.Email, proj.Name, link); err != nil {
		slog.ErrorContext(ctx, "Failed to deliver invitation", "invite_id", stored.ID, "error", err)
		return invitation.CreateResponse{}, fmt.Errorf("%w: %w", invitation.ErrDeliveryFailed, err)
	}

	return invitation.CreateResponse{Success: true}, nil
}

// issue upserts the (project, email) invite with a fresh token and expiry.
func (s *InvitationServiceImpl) issue(ctx context.Context, projectID, inviterID, email string) (invitation.Invitation, bool, error) {
	expiresAt := s.now().Add(s.cfg.TTL())

	for attempt := 1; ; attempt++ {
		tok, err := s.newToken()
		if err != nil {
			return invitation.Invitation{}, false, fmt.Errorf("failed to generate invitation token: %w", err)
		}
		id, err := s.newID()
		if err != nil {
			return invitation.Invitation{}, false, fmt.Errorf("failed to generate invitation id: %w", err)
		}

		stored, created, err := s.invitationRepo.Upsert(ctx, invitation.Invitation{
			ID:          id,
			ProjectID:   projectID,
			InvitedByID: inviterID,
			Email:       email,
			Token:       tok,
			ExpiresAt:   expiresAt,
		})
		if err == nil {
			return stored, created, nil
		}
		if errors.Is(err, invitation.ErrTokenConflict) && attempt < maxTokenAttempts {
			slog.WarnContext(ctx, "Invitation token collision, regenerating", "attempt", attempt)
			continue
		}
		return invitation.Invitation{}, false, fmt.Errorf("failed to save invitation: %w", err)
	}
}

func (s *InvitationServiceImpl) inviteLink(tok string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/?inviteToken=" + url.QueryEscape(tok)
}

// GetByToken implements invitation.InvitationService.
func (s *InvitationServiceImpl) GetByToken(ctx context.Context, tok string) (invitation.InvitationDetailResponse, error) {
	inv, err := s.resolveToken(ctx, tok)
	if err != nil {
		return invitation.InvitationDetailResponse{}, err
	}

	resp := invitation.InvitationDetailResponse{
		Email:       inv.Email,
		ProjectName: inv.ProjectName,
		Client:      inv.ProjectSlug,
		ExpiresAt:   inv.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if inv.Inviter != nil {
		resp.InviterEmail = inv.Inviter.Email
	}

	return resp, nil
}

// Consume implements invitation.InvitationService.
func (s *InvitationServiceImpl) Consume(ctx context.Context, tok, userID string) (invitation.InvitationWithDetails, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return invitation.InvitationWithDetails{}, err
	}

	inv, err := s.resolveToken(ctx, tok)
	if err != nil {
		return invitation.InvitationWithDetails{}, err
	}

	if err := s.redeem(ctx, inv.Invitation, userID); err != nil {
		return invitation.InvitationWithDetails{}, err
	}

	return inv, nil
}

// resolveToken looks up a live invite by token. Expired invites are removed
// before ErrInvitationExpired is returned.
func (s *InvitationServiceImpl) resolveToken(ctx context.Context, tok string) (invitation.InvitationWithDetails, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return invitation.InvitationWithDetails{}, invitation.ErrInvitationNotFound
	}

	inv, err := s.invitationRepo.GetByTokenWithDetails(ctx, tok)
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			return invitation.InvitationWithDetails{}, invitation.ErrInvitationNotFound
		}
		return invitation.InvitationWithDetails{}, fmt.Errorf("failed to get invitation: %w", err)
	}

	if err := s.checkLive(ctx, inv.Invitation); err != nil {
		return invitation.InvitationWithDetails{}, err
	}

	return inv, nil
}

// ListPendingForUser implements invitation.InvitationService.
func (s *InvitationServiceImpl) ListPendingForUser(ctx context.Context, userID string) ([]invitation.PendingInvitationResponse, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, err := s.invitationRepo.ListPendingByEmail(ctx, validator.NormalizeEmail(u.Email), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}

	result := make([]invitation.PendingInvitationResponse, 0, len(pending))
	for _, inv := range pending {
		item := invitation.PendingInvitationResponse{
			ID:        inv.ID,
			Email:     inv.Email,
			ExpiresAt: inv.ExpiresAt.UTC().Format(time.RFC3339),
			Project: invitation.ProjectSummary{
				ID:   inv.ProjectID,
				Name: inv.ProjectName,
				Slug: inv.ProjectSlug,
			},
		}
		if inv.Inviter != nil {
			item.InvitedBy = &invitation.InviterResponse{
				ID:          inv.Inviter.ID,
				Email:       inv.Inviter.Email,
				DisplayName: inv.Inviter.DisplayName,
				FirstName:   inv.Inviter.FirstName,
				LastName:    inv.Inviter.LastName,
			}
		}
		result = append(result, item)
	}

	return result, nil
}

// AcceptForUser implements invitation.InvitationService.
func (s *InvitationServiceImpl) AcceptForUser(ctx context.Context, inviteID, userID string) (invitation.ActionResponse, error) {
	inv, err := s.resolveForUser(ctx, inviteID, userID)
	if err != nil {
		return invitation.ActionResponse{}, err
	}

	if err := s.redeem(ctx, inv, userID); err != nil {
		return invitation.ActionResponse{}, err
	}

	return invitation.ActionResponse{Success: true}, nil
}

// RejectForUser implements invitation.InvitationService.
func (s *InvitationServiceImpl) RejectForUser(ctx context.Context, inviteID, userID string) (invitation.ActionResponse, error) {
	inv, err := s.resolveForUser(ctx, inviteID, userID)
	if err != nil {
		return invitation.ActionResponse{}, err
	}

	if err := s.invitationRepo.Delete(ctx, inv.ID, inv.Token); err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			return invitation.ActionResponse{}, invitation.ErrInvitationNotFound
		}
		return invitation.ActionResponse{}, fmt.Errorf("failed to reject invitation: %w", err)
	}

	slog.InfoContext(ctx, "Invitation rejected", "invite_id", inv.ID, "project_id", inv.ProjectID, "user_id", userID)
	return invitation.ActionResponse{Success: true}, nil
}

// PurgeExpired implements invitation.InvitationService.
func (s *InvitationServiceImpl) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.invitationRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired invitations: %w", err)
	}
	return removed, nil
}

// resolveForUser finds an invite by id that is addressed to the user's email.
func (s *InvitationServiceImpl) resolveForUser(ctx context.Context, inviteID, userID string) (invitation.Invitation, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return invitation.Invitation{}, err
	}

	inv, err := s.invitationRepo.GetByIDAndEmail(ctx, strings.TrimSpace(inviteID), validator.NormalizeEmail(u.Email))
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			return invitation.Invitation{}, invitation.ErrInvitationNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("failed to get invitation: %w", err)
	}

	if err := s.checkLive(ctx, inv); err != nil {
		return invitation.Invitation{}, err
	}

	return inv, nil
}

func (s *InvitationServiceImpl) getUser(ctx context.Context, userID string) (user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	return u, nil
}

// checkLive rejects consumed and expired invites. An expired invite is
// deleted on sight; a failed delete is logged and left to the sweep job.
func (s *InvitationServiceImpl) checkLive(ctx context.Context, inv invitation.Invitation) error {
	if inv.IsUsed() {
		return invitation.ErrInvitationAlreadyUsed
	}
	if !inv.IsExpiredAt(s.now()) {
		return nil
	}

	switch err := s.invitationRepo.Delete(ctx, inv.ID, inv.Token); {
	case err == nil:
		slog.InfoContext(ctx, "Expired invitation removed", "invite_id", inv.ID, "project_id", inv.ProjectID)
	case !errors.Is(err, invitation.ErrInvitationNotFound):
		slog.WarnContext(ctx, "Failed to remove expired invitation", "invite_id", inv.ID, "error", err)
	}

	return invitation.ErrInvitationExpired
}

// redeem deletes the invite and grants membership in one transaction. Losing
// the delete to a concurrent caller reports the invite as already used.
func (s *InvitationServiceImpl) redeem(ctx context.Context, inv invitation.Invitation, userID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invitationRepo.Delete(ctx, inv.ID, inv.Token); err != nil {
			return err
		}
		return s.projectRepo.EnsureMembership(ctx, inv.ProjectID, userID)
	})
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			return invitation.ErrInvitationAlreadyUsed
		}
		return fmt.Errorf("failed to accept invitation: %w", err)
	}

	slog.InfoContext(ctx, "Invitation accepted", "invite_id", inv.ID, "project_id", inv.ProjectID, "user_id", userID)
	return nil
}
