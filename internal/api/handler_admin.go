package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListLocks handles GET /api/admin/locks. It proxies the coordinator's live
// lease table; the engine itself never enumerates leases, this read-only
// surface exists for operators diagnosing contention.
func (h *Handler) ListLocks(c *gin.Context) {
	raw, err := h.locks.ListLocks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "coordinator unavailable"})
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}
