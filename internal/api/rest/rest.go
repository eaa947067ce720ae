package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes.
// auth guards every /api/v1 route
func SetupRoutes(router *gin.Engine, handler Handler, auth gin.HandlerFunc) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1", auth)
	{
		v1.GET("/event-types", handler.ListEventTypes)

		v1.GET("/subscriptions", handler.ListSubscriptions)
		v1.POST("/subscriptions", handler.CreateSubscriptions)
		v1.DELETE("/subscriptions", handler.DeleteSubscriptions)

		v1.GET("/notifications", handler.ListNotifications)
	}
}
