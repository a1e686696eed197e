package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"telescope-booking-backend/internal/model"
	"telescope-booking-backend/internal/store"
)

type createScientistRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateScientist handles POST /api/scientists.
func (h *Handler) CreateScientist(c *gin.Context) {
	var req createScientistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	sc := model.Scientist{Name: req.Name, Email: req.Email}
	if err := h.store.CreateScientist(c.Request.Context(), &sc); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "message": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register scientist"})
		return
	}

	c.JSON(http.StatusCreated, sc)
}
