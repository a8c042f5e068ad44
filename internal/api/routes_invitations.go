package api

import (
	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/handlers"
	"github.com/earlylookhq/earlylook/internal/middleware"
	"github.com/earlylookhq/earlylook/internal/models"
)

func registerInvitationRoutes(api *gin.RouterGroup, invitationHandler *handlers.InvitationHandler) {
	issuerOnly := middleware.RequireRole(models.RoleIssuer)

	api.POST("/deals/:id/invitations", issuerOnly, invitationHandler.Create)
	api.GET("/deals/:id/invitations", issuerOnly, invitationHandler.List)

	// Redemption requires an investor account but no prior deal access.
	api.POST("/invitations/accept", middleware.RequireRole(models.RoleInvestor), invitationHandler.Accept)
}
