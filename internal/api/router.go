package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/app"
	iauth "github.com/earlylookhq/earlylook/internal/auth"
	"github.com/earlylookhq/earlylook/internal/handlers"
	"github.com/earlylookhq/earlylook/internal/middleware"
	"github.com/earlylookhq/earlylook/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	access, err := services.NewAccessService(db)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db, audit)
	if err != nil {
		return nil, err
	}
	deals, err := services.NewDealService(db, audit)
	if err != nil {
		return nil, err
	}
	bands, err := services.NewBandService(db, audit)
	if err != nil {
		return nil, err
	}
	invitations, err := services.NewInvitationService(db, audit, services.WithInvitationTTL(cfg.Invitations.TTL))
	if err != nil {
		return nil, err
	}
	iois, err := services.NewIOIService(db, access, audit)
	if err != nil {
		return nil, err
	}
	demand, err := services.NewDemandService(db)
	if err != nil {
		return nil, err
	}
	feedback, err := services.NewFeedbackService(db, audit)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Public surface
	r.GET("/health", handlers.Health(db))
	r.GET("/api/health", handlers.Health(db))
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(users, jwt)
	registerAuthRoutes(r, authHandler, jwt)

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	registerDealRoutes(api,
		handlers.NewDealHandler(deals, demand, users, access),
		handlers.NewBandHandler(bands, access),
		handlers.NewFeedbackHandler(feedback, access),
	)
	registerIOIRoutes(api, handlers.NewIOIHandler(iois, access))
	registerInvitationRoutes(api, handlers.NewInvitationHandler(invitations, access))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
