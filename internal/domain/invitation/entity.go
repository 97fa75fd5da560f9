package invitation

import "time"

// Invitation represents a pending project invitation. A row only exists
// while the invite is live; accept, reject and observed expiry delete it.
type Invitation struct {
	ID          string
	ProjectID   string
	InvitedByID string
	Email       string
	Token       string
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Inviter is the user who issued an invitation, joined at read time. It is
// nil once that user has been deleted.
type Inviter struct {
	ID          string
	Email       string
	DisplayName *string
	FirstName   *string
	LastName    *string
}

// InvitationWithDetails contains invitation data with the joined project and inviter
type InvitationWithDetails struct {
	Invitation
	ProjectName string
	ProjectSlug string
	Inviter     *Inviter
}

// IsExpiredAt reports whether the invite is no longer valid at now.
func (i *Invitation) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsUsed reports whether the invite has already been consumed.
func (i *Invitation) IsUsed() bool {
	return i.AcceptedAt != nil
}
