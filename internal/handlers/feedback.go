package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// FeedbackHandler records and lists issuer-side notes on a deal's book.
type FeedbackHandler struct {
	feedback *services.FeedbackService
	access   *services.AccessService
}

func NewFeedbackHandler(feedback *services.FeedbackService, access *services.AccessService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, access: access}
}

type addFeedbackRequest struct {
	Scope    string  `json:"scope"`
	ScopeID  *string `json:"scope_id"`
	NoteText string  `json:"note_text" validate:"required"`
}

// POST /api/deals/:id/feedback
func (h *FeedbackHandler) Add(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	var req addFeedbackRequest
	if !bindAndValidate(c, &req) {
		return
	}

	note, err := h.feedback.Add(actorContext(c), services.AddFeedbackInput{
		DealID:          dealID,
		CreatedByUserID: currentUserID(c),
		Scope:           models.FeedbackScope(req.Scope),
		ScopeID:         req.ScopeID,
		NoteText:        req.NoteText,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, note)
}

// GET /api/deals/:id/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	dealID := c.Param("id")
	if err := h.access.RequireDealOwner(requestContext(c), currentUserID(c), dealID); err != nil {
		response.Error(c, err)
		return
	}

	notes, err := h.feedback.List(requestContext(c), dealID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, notes)
}
