package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// InvitationHandler manages deal invite lists and token redemption.
type InvitationHandler struct {
	invitations *services.InvitationService
	access      *services.AccessService
}

func NewInvitationHandler(invitations *services.InvitationService, access *services.AccessService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, access: access}
}

type createInvitationRequest struct {
	InvestorEmail   string     `json:"investor_email" validate:"required,email"`
	InvestorName    string     `json:"investor_name" validate:"required"`
	InvestorType    string     `json:"investor_type"`
	AnchorPotential bool       `json:"anchor_potential"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

type acceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// POST /api/deals/:id/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	var req createInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.invitations.Create(actorContext(c), services.CreateInvitationInput{
		DealID:          dealID,
		InvestorEmail:   req.InvestorEmail,
		InvestorName:    req.InvestorName,
		InvestorType:    models.InvestorType(req.InvestorType),
		AnchorPotential: req.AnchorPotential,
		ExpiresAt:       req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The token travels out-of-band to the invitee; it is only ever shown
	// here, at creation time.
	response.Success(c, http.StatusCreated, gin.H{
		"invitation": invitation,
		"token":      invitation.Token,
	})
}

// GET /api/deals/:id/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	invitations, err := h.invitations.List(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, invitations)
}

// POST /api/invitations/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req acceptInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.invitations.Accept(actorContext(c), req.Token, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, invitation)
}
