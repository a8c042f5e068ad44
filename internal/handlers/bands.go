package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// BandHandler manages the per-deal band ladder.
type BandHandler struct {
	bands  *services.BandService
	access *services.AccessService
}

func NewBandHandler(bands *services.BandService, access *services.AccessService) *BandHandler {
	return &BandHandler{bands: bands, access: access}
}

type addBandRequest struct {
	Label      string  `json:"label" validate:"required"`
	BandValue  float64 `json:"band_value" validate:"required"`
	OrderIndex int     `json:"order_index" validate:"required,min=1"`
	PERatio    string  `json:"pe_ratio"`
	EVEBITDA   string  `json:"ev_ebitda"`
}

// POST /api/deals/:id/bands
func (h *BandHandler) Add(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	var req addBandRequest
	if !bindAndValidate(c, &req) {
		return
	}

	band, err := h.bands.Add(actorContext(c), services.AddBandInput{
		DealID:     dealID,
		Label:      req.Label,
		BandValue:  req.BandValue,
		OrderIndex: req.OrderIndex,
		PERatio:    req.PERatio,
		EVEBITDA:   req.EVEBITDA,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, band)
}

// GET /api/deals/:id/bands
func (h *BandHandler) List(c *gin.Context) {
	dealID := c.Param("id")

	allowed, err := h.access.CanAccessDeal(requestContext(c), currentUserID(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !allowed {
		response.Error(c, services.ErrNotInvited)
		return
	}

	bands, err := h.bands.List(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, bands)
}

// DELETE /api/deals/:id/bands/:bandId
func (h *BandHandler) Delete(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.bands.Delete(actorContext(c), c.Param("bandId")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
