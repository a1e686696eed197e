package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"telescope-booking-backend/internal/engine"
	"telescope-booking-backend/internal/lock"
	"telescope-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	engine  *engine.Engine
	locks   *lock.Client
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, e *engine.Engine, locks *lock.Client, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		engine:  e,
		locks:   locks,
		webpush: webpushOptions,
	}
}
