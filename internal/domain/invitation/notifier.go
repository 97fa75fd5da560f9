package invitation

import "context"

// Notifier delivers invite links to invitees.
type Notifier interface {
	SendProjectInvitation(ctx context.Context, to, inviterEmail, projectName, inviteLink string) error
}
