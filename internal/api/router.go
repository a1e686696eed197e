package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"telescope-booking-backend/config"
	"telescope-booking-backend/internal/engine"
	"telescope-booking-backend/internal/lock"
	"telescope-booking-backend/internal/mw"
	"telescope-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, e *engine.Engine, locks *lock.Client, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, e, locks, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Listing instruments is the only cached read; bookings must reflect
	// store state at query time.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.GetHealth)
		api.GET("/time", handler.GetTime)

		api.POST("/bookings", handler.CreateBooking)
		api.POST("/bookings/:id/cancel", handler.CancelBooking)
		api.GET("/bookings", handler.ListBookings)

		api.POST("/scientists", handler.CreateScientist)
		api.GET("/instruments", caching, handler.ListInstruments)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		admin := api.Group("/admin")
		admin.Use(mw.RequireToken(cfg.AdminToken))
		{
			admin.GET("/locks", handler.ListLocks)
		}
	}

	return r
}
