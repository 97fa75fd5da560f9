package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/invitation"
	"github.com/cmlabs-hris/collab-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type InvitationHandler interface {
	// Owner endpoints
	CreateInvitation(w http.ResponseWriter, r *http.Request)
	// Invitee endpoints
	ListMyInvitations(w http.ResponseWriter, r *http.Request)
	AcceptInvitation(w http.ResponseWriter, r *http.Request)
	RejectInvitation(w http.ResponseWriter, r *http.Request)
	// Token link endpoints
	GetInvitationByToken(w http.ResponseWriter, r *http.Request)
	ConsumeInvitation(w http.ResponseWriter, r *http.Request)
}

type invitationHandlerImpl struct {
	invitationService invitation.InvitationService
}

func NewInvitationHandler(invitationService invitation.InvitationService) InvitationHandler {
	return &invitationHandlerImpl{
		invitationService: invitationService,
	}
}

// CreateInvitation implements InvitationHandler
func (h *invitationHandlerImpl) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrUnauthorized)
		return
	}

	var req invitation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.OwnerID = claims.UserID
	req.ProjectSlug = chi.URLParam(r, "slug")

	result, err := h.invitationService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Invitation sent", result)
}

// ListMyInvitations implements InvitationHandler - lists pending invitations for authenticated user
func (h *invitationHandlerImpl) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrUnauthorized)
		return
	}

	results, err := h.invitationService.ListPendingForUser(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// AcceptInvitation implements InvitationHandler
func (h *invitationHandlerImpl) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrUnauthorized)
		return
	}

	result, err := h.invitationService.AcceptForUser(r.Context(), chi.URLParam(r, "inviteId"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RejectInvitation implements InvitationHandler
func (h *invitationHandlerImpl) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrUnauthorized)
		return
	}

	result, err := h.invitationService.RejectForUser(r.Context(), chi.URLParam(r, "inviteId"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetInvitationByToken implements InvitationHandler - public endpoint
func (h *invitationHandlerImpl) GetInvitationByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Token is required", nil)
		return
	}

	result, err := h.invitationService.GetByToken(r.Context(), token)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ConsumeInvitation implements InvitationHandler - redeem a token link
func (h *invitationHandlerImpl) ConsumeInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrUnauthorized)
		return
	}

	inv, err := h.invitationService.Consume(r.Context(), chi.URLParam(r, "token"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, invitation.ConsumeResponse{
		ProjectID:   inv.ProjectID,
		ProjectSlug: inv.ProjectSlug,
	})
}
