package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/errors"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// DealHandler exposes deal lifecycle and book aggregation endpoints.
type DealHandler struct {
	deals  *services.DealService
	demand *services.DemandService
	users  *services.UserService
	access *services.AccessService
}

func NewDealHandler(deals *services.DealService, demand *services.DemandService, users *services.UserService, access *services.AccessService) *DealHandler {
	return &DealHandler{deals: deals, demand: demand, users: users, access: access}
}

type createDealRequest struct {
	Name         string     `json:"name" validate:"required"`
	DealType     string     `json:"deal_type" validate:"required"`
	Currency     string     `json:"currency"`
	TargetAmount float64    `json:"target_amount" validate:"required,gt=0"`
	Description  string     `json:"description"`
	EndAt        *time.Time `json:"end_at"`
	MaxIOIAmount *float64   `json:"max_ioi_amount"`
}

type updateDealRequest struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Currency     *string    `json:"currency"`
	TargetAmount *float64   `json:"target_amount"`
	EndAt        *time.Time `json:"end_at"`
	MaxIOIAmount *float64   `json:"max_ioi_amount"`
}

type setRangeRequest struct {
	LowBandID   string `json:"low_band_id" validate:"required"`
	HighBandID  string `json:"high_band_id" validate:"required"`
	Description string `json:"description"`
}

// issuerProfile resolves the caller's issuer organisation or writes a 403.
func (h *DealHandler) issuerProfile(c *gin.Context) (*models.Issuer, bool) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if user.IssuerProfile == nil {
		response.Error(c, errors.ErrForbidden)
		return nil, false
	}
	return user.IssuerProfile, true
}

// POST /api/deals
func (h *DealHandler) Create(c *gin.Context) {
	var req createDealRequest
	if !bindAndValidate(c, &req) {
		return
	}

	issuer, ok := h.issuerProfile(c)
	if !ok {
		return
	}

	deal, err := h.deals.Create(actorContext(c), services.CreateDealInput{
		IssuerID:     issuer.ID,
		Name:         req.Name,
		DealType:     models.DealType(req.DealType),
		Currency:     req.Currency,
		TargetAmount: req.TargetAmount,
		Description:  req.Description,
		EndAt:        req.EndAt,
		MaxIOIAmount: req.MaxIOIAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, deal)
}

// GET /api/deals
func (h *DealHandler) List(c *gin.Context) {
	issuer, ok := h.issuerProfile(c)
	if !ok {
		return
	}

	deals, err := h.deals.ListForIssuer(requestContext(c), issuer.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deals)
}

// GET /api/deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	dealID := c.Param("id")

	allowed, err := h.access.CanAccessDeal(requestContext(c), currentUserID(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !allowed {
		response.Error(c, errors.ErrForbidden)
		return
	}

	deal, err := h.deals.GetByID(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deal)
}

// PATCH /api/deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	dealID := c.Param("id")
	if !h.requireOwner(c, dealID) {
		return
	}

	var req updateDealRequest
	if !bindAndValidate(c, &req) {
		return
	}

	deal, err := h.deals.Update(actorContext(c), dealID, services.UpdateDealInput{
		Name:         req.Name,
		Description:  req.Description,
		Currency:     req.Currency,
		TargetAmount: req.TargetAmount,
		EndAt:        req.EndAt,
		MaxIOIAmount: req.MaxIOIAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deal)
}

// POST /api/deals/:id/open
func (h *DealHandler) Open(c *gin.Context) {
	dealID := c.Param("id")
	if !h.requireOwner(c, dealID) {
		return
	}

	deal, err := h.deals.Open(actorContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deal)
}

// POST /api/deals/:id/close
func (h *DealHandler) Close(c *gin.Context) {
	dealID := c.Param("id")
	if !h.requireOwner(c, dealID) {
		return
	}

	deal, err := h.deals.Close(actorContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deal)
}

// POST /api/deals/:id/range
func (h *DealHandler) SetRange(c *gin.Context) {
	dealID := c.Param("id")
	if !h.requireOwner(c, dealID) {
		return
	}

	var req setRangeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// Range selection is the post-mortem step of a book; an open deal's
	// demand is still moving under it.
	deal, err := h.deals.GetByID(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if deal.Status != models.DealStatusClosed {
		response.Error(c, services.ErrInvalidStateTransition)
		return
	}

	deal, err = h.deals.SetIndicativeRange(actorContext(c), dealID, req.LowBandID, req.HighBandID, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, deal)
}

// GET /api/deals/:id/summary
func (h *DealHandler) Summary(c *gin.Context) {
	dealID := c.Param("id")
	if !h.requireOwner(c, dealID) {
		return
	}

	summary, err := h.demand.Summary(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

func (h *DealHandler) requireOwner(c *gin.Context, dealID string) bool {
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}
