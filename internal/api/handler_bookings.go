package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"telescope-booking-backend/internal/engine"
	"telescope-booking-backend/internal/store"
)

type createBookingRequest struct {
	ScientistID  int64  `json:"scientist_id" binding:"required"`
	InstrumentID int64  `json:"instrument_id" binding:"required"`
	StartUTC     string `json:"start_utc" binding:"required"`
	EndUTC       string `json:"end_utc" binding:"required"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	r, err := h.engine.Book(c.Request.Context(), engine.BookingRequest{
		ScientistID:  req.ScientistID,
		InstrumentID: req.InstrumentID,
		StartUTC:     req.StartUTC,
		EndUTC:       req.EndUTC,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": "invalid reservation id"})
		return
	}

	r, err := h.engine.Cancel(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": r.ID, "status": r.Status})
}

// ListBookings handles GET /api/bookings with an optional instrument_id filter.
func (h *Handler) ListBookings(c *gin.Context) {
	var instrumentID *int64
	if raw := c.Query("instrument_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": "invalid instrument_id"})
			return
		}
		instrumentID = &id
	}

	reservations, err := h.engine.List(c.Request.Context(), instrumentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// writeBookingError maps the engine's error taxonomy onto HTTP statuses.
// All conflict causes share a 409; the cause only appears in the payload so
// callers can treat every variant as "slot unavailable, retry later".
func writeBookingError(c *gin.Context, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "field": verr.Field, "message": verr.Msg})
		return
	}

	var conflict *engine.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "cause": conflict.Cause, "detail": conflict.Detail})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "NotFound", "message": "reservation not found"})
		return
	}

	// Durable-write failure unrelated to overlap; no internal detail leaks.
	var serr *engine.StoreError
	if errors.As(err, &serr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "StoreFailure", "message": "could not persist the reservation"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
