package invitation

import (
	"strings"

	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/validator"
)

// CreateRequest - POST /projects/{slug}/invitations
type CreateRequest struct {
	OwnerID     string `json:"-"` // From JWT
	ProjectSlug string `json:"-"` // From Chi URL param
	Email       string `json:"email"`
}

// Validate only checks the shape of a present email. A blank email is
// reported by the service as ErrEmailRequired after the project check.
func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.OwnerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "owner_id",
			Message: "owner_id is required",
		})
	}

	if email := strings.TrimSpace(r.Email); email != "" && !validator.IsValidEmail(email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email format is invalid",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CreateResponse struct {
	Success bool `json:"success"`
}

// InvitationDetailResponse - GET /invitations/{token}
type InvitationDetailResponse struct {
	Email        string `json:"email"`
	ProjectName  string `json:"projectName"`
	Client       string `json:"client"`
	InviterEmail string `json:"inviterEmail"`
	ExpiresAt    string `json:"expiresAt"`
}

type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type InviterResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
}

// PendingInvitationResponse - GET /projects/invitations
type PendingInvitationResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	ExpiresAt string           `json:"expiresAt"`
	Project   ProjectSummary   `json:"project"`
	InvitedBy *InviterResponse `json:"invitedBy"`
}

type ActionResponse struct {
	Success bool `json:"success"`
}

// ConsumeResponse - POST /invitations/{token}/accept
type ConsumeResponse struct {
	ProjectID   string `json:"projectId"`
	ProjectSlug string `json:"projectSlug"`
}
