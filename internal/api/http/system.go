package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root describes the service.
func Root(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "filemanager",
			"version": version,
			"api":     "/api/:action",
		})
	}
}

// Health reports liveness and the live session count.
func Health(sessions func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"sessions": sessions(),
		})
	}
}
