package api

import (
	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/handlers"
	"github.com/earlylookhq/earlylook/internal/middleware"
	"github.com/earlylookhq/earlylook/internal/models"
)

func registerIOIRoutes(api *gin.RouterGroup, ioiHandler *handlers.IOIHandler) {
	investorOnly := middleware.RequireRole(models.RoleInvestor)

	api.POST("/deals/:id/iois", investorOnly, ioiHandler.Submit)
	api.GET("/deals/:id/iois", middleware.RequireRole(models.RoleIssuer), ioiHandler.ListBook)
	api.GET("/deals/:id/iois/mine", investorOnly, ioiHandler.ListMine)

	api.DELETE("/iois/:id", investorOnly, ioiHandler.Withdraw)
	api.GET("/iois/:id/history", ioiHandler.History)
}
