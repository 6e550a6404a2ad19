package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/app"
	"github.com/agentmesh/agentmesh/internal/handlers"
	"github.com/agentmesh/agentmesh/internal/middleware"
	"github.com/agentmesh/agentmesh/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// lifecycle routes.
func NewRouter(db *gorm.DB, cfg *app.Config, deletions *services.DeletionRequestService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deletions == nil {
		return nil, fmt.Errorf("deletion service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}

	lifecycleHandler, err := handlers.NewLifecycleHandler(db, deletions)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.AgentIdentity())

	lifecycle := api.Group("/lifecycle")
	{
		lifecycle.POST("/deletion-request", lifecycleHandler.RequestDeletion)
		lifecycle.DELETE("/deletion-request", lifecycleHandler.CancelDeletion)
		lifecycle.GET("/deletion-request", lifecycleHandler.DeletionStatus)
		lifecycle.GET("/audit", lifecycleHandler.ListAudit)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
