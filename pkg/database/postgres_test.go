package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/heatmap/pkg/config"
)

// testConfig returns the integration database config or skips the test
func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	return config.DatabaseConfig{
		URL:             url,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func TestNew(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Failed to ping database: %v", err)
	}
}

func TestStats(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxConns; got != 4 {
		t.Errorf("Expected MaxConns=4, got %d", got)
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(config.DatabaseConfig{
		URL:             "postgres://heatmap:pw@db.local:5433/prices",
		MaxConns:        8,
		MaxConnIdleTime: time.Minute,
	})
	if err != nil {
		t.Fatalf("PoolConfig failed: %v", err)
	}

	if pc.MaxConns != 8 {
		t.Errorf("MaxConns = %d, want 8", pc.MaxConns)
	}
	if pc.MaxConnIdleTime != time.Minute {
		t.Errorf("MaxConnIdleTime = %v", pc.MaxConnIdleTime)
	}
	if pc.ConnConfig.Host != "db.local" || pc.ConnConfig.Port != 5433 || pc.ConnConfig.Database != "prices" {
		t.Errorf("unexpected conn config %s:%d/%s", pc.ConnConfig.Host, pc.ConnConfig.Port, pc.ConnConfig.Database)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "heatmap" {
		t.Errorf("application_name = %q", got)
	}

	pc, err = PoolConfig(config.DatabaseConfig{URL: "postgres://db.local/prices?application_name=etl"})
	if err != nil {
		t.Fatalf("PoolConfig failed: %v", err)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "etl" {
		t.Errorf("explicit application_name overridden: %q", got)
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sentinel := context.Canceled

	err = db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "CREATE TEMP TABLE tx_check (id int)"); err != nil {
			return err
		}
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("Expected fn error to be returned, got %v", err)
	}
}

func TestNewWithInvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"bad scheme", "invalid://url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), config.DatabaseConfig{URL: tt.url})
			if err == nil {
				t.Error("Expected error with invalid database URL, got nil")
			}
		})
	}
}

func TestClose(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	// Close should not panic
	db.Close()

	// Double close should not panic
	db.Close()
}
