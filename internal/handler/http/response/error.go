package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/invitation"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrUnauthorized):
		Unauthorized(w, "Authentication required")

	// User and project domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, invitation.ErrProjectNotFound):
		NotFound(w, "Project not found")

	// Invitation domain errors
	case errors.Is(err, invitation.ErrInviterNotFound):
		NotFound(w, "Inviter not found")
	case errors.Is(err, invitation.ErrInvitationNotFound):
		NotFound(w, "Invitation not found")
	case errors.Is(err, invitation.ErrEmailRequired):
		BadRequest(w, "Email is required", map[string]string{"email": "email is required"})
	case errors.Is(err, invitation.ErrSelfInvite):
		BadRequest(w, "You cannot invite yourself", nil)
	case errors.Is(err, invitation.ErrInvitationAlreadyUsed):
		BadRequest(w, "Invitation has already been used", nil)
	case errors.Is(err, invitation.ErrInvitationExpired):
		BadRequest(w, "Invitation has expired", nil)
	case errors.Is(err, invitation.ErrAlreadyMember):
		Conflict(w, "User is already a member of this project")
	case errors.Is(err, invitation.ErrDeliveryFailed):
		slog.Error("Invitation delivery failed", "error", err)
		BadGateway(w, "Failed to send invitation email")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
