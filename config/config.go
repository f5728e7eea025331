package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CatalogBaseURL  string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8000/api"`
	CatalogEmail    string        `env:"CATALOG_EMAIL"`
	CatalogPassword string        `env:"CATALOG_PASSWORD"`
	PageSize        int           `env:"CATALOG_PAGE_SIZE" envDefault:"100"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	RateLimitMs     int           `env:"PAGE_RATE_LIMIT_MS" envDefault:"0"`

	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"5m"`
	SyncOnce     bool          `env:"SYNC_ONCE" envDefault:"false"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"console"`

	CSVOutputPath string `env:"CSV_OUTPUT_PATH" envDefault:"./output/top_projects.csv"`

	PostgresEnabled  bool   `env:"POSTGRES_ENABLED" envDefault:"false"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"insights"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"insights123"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"insights_db"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxRetries       int    `env:"MAX_RETRIES" envDefault:"5"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the sync client cannot work with.
func (c *Config) Validate() error {
	if c.CatalogBaseURL == "" {
		return fmt.Errorf("config: CATALOG_BASE_URL is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: CATALOG_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("config: SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
