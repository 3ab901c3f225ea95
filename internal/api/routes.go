package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/check", handler.CheckFromQuery)
		v1.POST("/check", handler.Check)

		history := v1.Group("/history")
		{
			history.GET("", handler.ListHistory)
			history.DELETE("", handler.ClearHistory)
		}
	}

	return router
}
