package invitation

import "context"

// InvitationService defines the interface for invitation business logic
type InvitationService interface {
	// Create issues or re-issues an invite and delivers its link
	Create(ctx context.Context, req CreateRequest) (CreateResponse, error)

	// GetByToken retrieves invitation details by token (public endpoint)
	GetByToken(ctx context.Context, token string) (InvitationDetailResponse, error)

	// Consume redeems a token for userID and grants project membership
	Consume(ctx context.Context, token, userID string) (InvitationWithDetails, error)

	// ListPendingForUser lists live invites addressed to the user's email
	ListPendingForUser(ctx context.Context, userID string) ([]PendingInvitationResponse, error)

	// AcceptForUser accepts one of the user's pending invites by id
	AcceptForUser(ctx context.Context, inviteID, userID string) (ActionResponse, error)

	// RejectForUser deletes one of the user's pending invites without granting membership
	RejectForUser(ctx context.Context, inviteID, userID string) (ActionResponse, error)

	// PurgeExpired deletes every expired invite and returns how many were removed
	PurgeExpired(ctx context.Context) (int64, error)
}
