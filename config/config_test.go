package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CATALOG_BASE_URL", "https://catalog.example.com/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 100 {
		t.Errorf("PageSize: got %d, want 100", cfg.PageSize)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("SyncInterval: got %s, want 5m", cfg.SyncInterval)
	}
	if cfg.PostgresEnabled {
		t.Error("PostgresEnabled should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATALOG_BASE_URL", "https://catalog.example.com/api")
	t.Setenv("CATALOG_PAGE_SIZE", "25")
	t.Setenv("SYNC_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize: got %d, want 25", cfg.PageSize)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("SyncInterval: got %s, want 30s", cfg.SyncInterval)
	}
}

func TestValidateRejectsBadPageSize(t *testing.T) {
	t.Setenv("CATALOG_PAGE_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero page size")
	}
}

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=d sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
