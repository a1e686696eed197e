package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetHealth handles GET /api/health.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetTime handles GET /api/time.
func (h *Handler) GetTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server_time_utc": time.Now().UTC().Format(time.RFC3339),
	})
}
