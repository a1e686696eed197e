package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"telescope-booking-backend/config"
	"telescope-booking-backend/internal/api"
	"telescope-booking-backend/internal/audit"
	"telescope-booking-backend/internal/db"
	"telescope-booking-backend/internal/engine"
	"telescope-booking-backend/internal/lock"
	"telescope-booking-backend/internal/notification"
	"telescope-booking-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "bookingd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := appStore.SeedDefaults(ctx); err != nil {
		logger.Fatalf("failed to seed default instruments: %v", err)
	}

	// Audit sink: Kafka when brokers are configured, JSONL file otherwise.
	var sink audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err = audit.NewKafkaSink(cfg.Audit.Service, cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			logger.Fatalf("failed to initialize kafka audit sink: %v", err)
		}
		logger.Printf("audit events go to kafka topic %s", cfg.Audit.KafkaTopic)
	} else {
		sink, err = audit.NewFileSink(cfg.Audit.Service, cfg.Audit.FilePath)
		if err != nil {
			logger.Fatalf("failed to initialize audit file sink: %v", err)
		}
		logger.Printf("audit events go to %s", cfg.Audit.FilePath)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Printf("audit sink close: %v", err)
		}
	}()

	// Lock coordinator client
	locks := lock.New(cfg.Coordinator.BaseURL, nil, cfg.Coordinator.AcquireTimeout, cfg.Coordinator.ReleaseTimeout)
	logger.Printf("using lock coordinator at %s (lease TTL %s)", cfg.Coordinator.BaseURL, cfg.Coordinator.LockTTL)

	// Slot-freed notification workers. Without VAPID keys push delivery is
	// disabled but cancellation still works.
	var pool *notification.WorkerPool
	var notifier engine.Notifier
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions := &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		notifier = pool
		logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured; slot-freed push notifications disabled")
	}

	bookingEngine := engine.New(appStore, locks, sink, notifier, cfg.Coordinator.LockTTL)

	// Initialize router
	var webpushOptions *webpush.Options
	if pool != nil {
		webpushOptions = &webpush.Options{VAPIDPublicKey: cfg.Push.PublicKey}
	}
	router := api.NewRouter(&cfg.Server, appStore, bookingEngine, locks, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
