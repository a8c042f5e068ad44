package api

import (
	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/handlers"
	"github.com/earlylookhq/earlylook/internal/middleware"
	"github.com/earlylookhq/earlylook/internal/models"
)

func registerDealRoutes(api *gin.RouterGroup, dealHandler *handlers.DealHandler, bandHandler *handlers.BandHandler, feedbackHandler *handlers.FeedbackHandler) {
	issuerOnly := middleware.RequireRole(models.RoleIssuer)

	deals := api.Group("/deals")
	{
		deals.POST("", issuerOnly, dealHandler.Create)
		deals.GET("", issuerOnly, dealHandler.List)
		deals.GET("/:id", dealHandler.Get)
		deals.PATCH("/:id", issuerOnly, dealHandler.Update)
		deals.POST("/:id/open", issuerOnly, dealHandler.Open)
		deals.POST("/:id/close", issuerOnly, dealHandler.Close)
		deals.POST("/:id/range", issuerOnly, dealHandler.SetRange)
		deals.GET("/:id/summary", issuerOnly, dealHandler.Summary)

		deals.POST("/:id/bands", issuerOnly, bandHandler.Add)
		deals.GET("/:id/bands", bandHandler.List)
		deals.DELETE("/:id/bands/:bandId", issuerOnly, bandHandler.Delete)

		deals.POST("/:id/feedback", issuerOnly, feedbackHandler.Add)
		deals.GET("/:id/feedback", issuerOnly, feedbackHandler.List)
	}
}
