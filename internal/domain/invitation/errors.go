package invitation

import "errors"

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrEmailRequired         = errors.New("email is required")
	ErrInviterNotFound       = errors.New("inviter not found")
	ErrSelfInvite            = errors.New("you cannot invite yourself")
	ErrAlreadyMember         = errors.New("user is already a member of this project")
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrInvitationAlreadyUsed = errors.New("invitation has already been used")
	ErrInvitationExpired     = errors.New("invitation has expired")
	ErrDeliveryFailed        = errors.New("failed to send invitation email")

	// ErrTokenConflict is returned by the repository when a freshly generated
	// token collides with an existing one.
	ErrTokenConflict = errors.New("invitation token already exists")
)
