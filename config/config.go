package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Audit       AuditConfig       `yaml:"audit"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	AdminToken      string  `yaml:"admin_token"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	// Driver selects the gorm driver: "postgres" or "sqlite".
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// EnableExclusion installs the Postgres GIST exclusion constraint that
	// rejects overlapping CONFIRMED reservations at the storage layer.
	EnableExclusion bool `yaml:"enable_exclusion_constraint"`
}

// CoordinatorConfig holds the lock coordinator client configuration.
type CoordinatorConfig struct {
	BaseURL               string        `yaml:"base_url"`
	LockTTLMS             int           `yaml:"lock_ttl_ms"`
	LockTTL               time.Duration `yaml:"-"`
	AcquireTimeoutSeconds int           `yaml:"acquire_timeout_seconds"`
	AcquireTimeout        time.Duration `yaml:"-"`
	ReleaseTimeoutSeconds int           `yaml:"release_timeout_seconds"`
	ReleaseTimeout        time.Duration `yaml:"-"`
}

// AuditConfig holds the audit sink configuration. When Kafka brokers are set
// the audit stream goes to the given topic, otherwise to the JSONL file.
type AuditConfig struct {
	Service      string   `yaml:"service"`
	FilePath     string   `yaml:"file_path"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:bookings.db"
	}

	if cfg.Coordinator.BaseURL == "" {
		cfg.Coordinator.BaseURL = "http://localhost:3000"
	}
	if cfg.Coordinator.LockTTLMS <= 0 {
		cfg.Coordinator.LockTTLMS = 15000
	}
	cfg.Coordinator.LockTTL = time.Duration(cfg.Coordinator.LockTTLMS) * time.Millisecond

	if cfg.Coordinator.AcquireTimeoutSeconds <= 0 {
		cfg.Coordinator.AcquireTimeoutSeconds = 3
	}
	cfg.Coordinator.AcquireTimeout = time.Duration(cfg.Coordinator.AcquireTimeoutSeconds) * time.Second

	if cfg.Coordinator.ReleaseTimeoutSeconds <= 0 {
		cfg.Coordinator.ReleaseTimeoutSeconds = 2
	}
	cfg.Coordinator.ReleaseTimeout = time.Duration(cfg.Coordinator.ReleaseTimeoutSeconds) * time.Second

	if cfg.Audit.Service == "" {
		cfg.Audit.Service = "telescope-booking"
	}
	if cfg.Audit.FilePath == "" {
		cfg.Audit.FilePath = "audit.log"
	}
	if len(cfg.Audit.KafkaBrokers) > 0 && cfg.Audit.KafkaTopic == "" {
		cfg.Audit.KafkaTopic = "reservation-audit"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
