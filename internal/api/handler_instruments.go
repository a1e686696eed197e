package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListInstruments handles GET /api/instruments.
func (h *Handler) ListInstruments(c *gin.Context) {
	instruments, err := h.store.ListInstruments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve instruments"})
		return
	}

	c.JSON(http.StatusOK, instruments)
}
