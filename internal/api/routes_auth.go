package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/earlylookhq/earlylook/internal/auth"
	"github.com/earlylookhq/earlylook/internal/handlers"
	"github.com/earlylookhq/earlylook/internal/middleware"
)

func registerAuthRoutes(r *gin.Engine, authHandler *handlers.AuthHandler, jwt *iauth.JWTService) {
	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register/issuer", authHandler.RegisterIssuer)
		auth.POST("/register/investor", authHandler.RegisterInvestor)
		auth.POST("/login", authHandler.Login)
	}

	r.GET("/api/auth/me", middleware.Auth(jwt), authHandler.Me)
}
