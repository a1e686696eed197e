package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telescope-booking-backend/config"
	"telescope-booking-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Scientist{},
		&model.Instrument{},
		&model.Reservation{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.Driver == "postgres" && cfg.EnableExclusion {
		log.Println("Applying reservation exclusion constraint DDL...")
		// Re-running ADD CONSTRAINT on an already-migrated database errors;
		// treat that as already-applied rather than failing startup.
		if err := applyExclusionDDL(db); err != nil {
			log.Printf("Warning: exclusion constraint DDL not applied: %v", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyExclusionDDL installs the storage-level guard against overlapping
// CONFIRMED reservations. The lease serializes attempts on the same
// (instrument, start) key; this constraint closes the residual race between
// attempts with different start instants whose intervals still overlap.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE reservations " +
			"ADD CONSTRAINT reservations_interval_valid CHECK (starts_at < ends_at);",

		// Half-open ranges: a reservation ending at T does not exclude one
		// starting at T. CANCELLED rows are out of the constraint.
		"ALTER TABLE reservations " +
			"ADD CONSTRAINT reservations_no_confirmed_overlap " +
			"EXCLUDE USING GIST (instrument_id WITH =, tstzrange(starts_at, ends_at, '[)') WITH &&) " +
			"WHERE (status = 'CONFIRMED');",

		"CREATE INDEX IF NOT EXISTS idx_reservations_instrument_starts_at " +
			"ON reservations (instrument_id, starts_at DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
