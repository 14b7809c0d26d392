package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nutrihub/backend/config"
	"github.com/nutrihub/backend/internal/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		foods := v1.Group("/foods")
		{
			foods.POST("/search", handler.SearchFoods)
			foods.GET("/usage", handler.UsageStats)
		}

		admin := v1.Group("/admin")
		{
			admin.DELETE("/cache", handler.ClearCache)
		}
	}

	return router
}
