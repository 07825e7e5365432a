package http

import (
	"github.com/gin-gonic/gin"
	"github.com/myfcd/harvester/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Food names may contain escaped slashes
	router.UseRawPath = true

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(CacheControlMiddleware(cfg.Server.CacheMaxAge))
	{
		v1.GET("/foods", handler.ListFoods)
		v1.GET("/foods/:name", handler.GetFood)
		v1.GET("/nutrients", handler.ListNutrients)
		v1.GET("/runs/latest", handler.LatestRun)
	}

	return router
}
