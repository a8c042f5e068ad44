package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/errors"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// IOIHandler exposes the indication ledger to both sides of a deal.
type IOIHandler struct {
	iois   *services.IOIService
	access *services.AccessService
}

func NewIOIHandler(iois *services.IOIService, access *services.AccessService) *IOIHandler {
	return &IOIHandler{iois: iois, access: access}
}

type submitIOIRequest struct {
	BandID             string  `json:"band_id" validate:"required"`
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	Strength           string  `json:"strength"`
	AnchorFlag         bool    `json:"anchor_flag"`
	InvestorNote       string  `json:"investor_note"`
	DisclaimerAccepted bool    `json:"disclaimer_accepted"`
}

// POST /api/deals/:id/iois
func (h *IOIHandler) Submit(c *gin.Context) {
	var req submitIOIRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// Non-binding indications still require the acknowledgement box.
	if !req.DisclaimerAccepted {
		response.Error(c, errors.NewBadRequest("disclaimer must be accepted"))
		return
	}

	ioi, err := h.iois.Submit(actorContext(c), services.SubmitIOIInput{
		DealID:             c.Param("id"),
		InvestorUserID:     currentUserID(c),
		BandID:             req.BandID,
		Amount:             req.Amount,
		Strength:           models.IOIStrength(req.Strength),
		AnchorFlag:         req.AnchorFlag,
		InvestorNote:       req.InvestorNote,
		DisclaimerAccepted: req.DisclaimerAccepted,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, ioi)
}

// DELETE /api/iois/:id
func (h *IOIHandler) Withdraw(c *gin.Context) {
	if err := h.iois.Withdraw(actorContext(c), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"withdrawn": true})
}

// GET /api/deals/:id/iois — issuer view of the full live book.
func (h *IOIHandler) ListBook(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	iois, err := h.iois.ListActive(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, iois)
}

// GET /api/deals/:id/iois/mine — investor's own live indications.
func (h *IOIHandler) ListMine(c *gin.Context) {
	dealID := c.Param("id")
	userID := currentUserID(c)

	if err := h.access.RequireInvitedInvestor(requestContext(c), dealID, userID); err != nil {
		response.Error(c, err)
		return
	}

	iois, err := h.iois.ListForInvestor(requestContext(c), dealID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, iois)
}

// GET /api/iois/:id/history — change trail, visible to the submitting
// investor and the deal's issuer.
func (h *IOIHandler) History(c *gin.Context) {
	ioi, err := h.iois.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := currentUserID(c)
	if ioi.InvestorUserID != userID {
		if err := h.access.RequireDealOwner(requestContext(c), userID, ioi.DealID); err != nil {
			response.Error(c, err)
			return
		}
	}

	history, err := h.iois.History(requestContext(c), ioi.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, history)
}
