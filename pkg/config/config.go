package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Input data
	Data DataConfig

	// Database (postgres source, import command)
	Database DatabaseConfig

	// Redis (shared result cache)
	Redis RedisConfig

	// Analytics engine defaults
	Analytics AnalyticsConfig

	// Result cache
	CacheTTL time.Duration

	// API rate limit (requests per second, 0 = disabled)
	RateLimitRPS   float64
	RateLimitBurst int

	// Dataset reload cron expression (with seconds), empty = disabled
	ReloadSchedule string

	// CORS allowed origins ("*" = any)
	CORSOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DataConfig describes where daily index prices come from
type DataConfig struct {
	Source     string // csv, xlsx, html, url, postgres
	Path       string
	URL        string
	Sheet      string
	DateColumn string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// AnalyticsConfig holds engine defaults (overridden by ConfigPath when set)
type AnalyticsConfig struct {
	ConfigPath            string
	Mode                  string
	Horizon               string
	AverageWindowYears    int
	PercentileWindowYears int
	InverseWindowYears    int
	MinHistoryMonths      int
}

// Data sources
const (
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourceHTML     = "html"
	SourceURL      = "url"
	SourcePostgres = "postgres"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	percentileYears := getEnvAsInt("ANALYTICS_PERCENTILE_WINDOW_YEARS", 4)

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8001"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Source:     strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),
			Path:       getEnv("DATA_PATH", "data/indices.csv"),
			URL:        getEnv("DATA_URL", ""),
			Sheet:      getEnv("DATA_SHEET", ""),
			DateColumn: getEnv("DATA_DATE_COLUMN", "DATE"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Analytics: AnalyticsConfig{
			ConfigPath:            getEnv("ANALYTICS_CONFIG", ""),
			Mode:                  getEnv("ANALYTICS_MODE", "mom"),
			Horizon:               getEnv("ANALYTICS_HORIZON", "1Y"),
			AverageWindowYears:    getEnvAsInt("ANALYTICS_AVG_WINDOW_YEARS", 3),
			PercentileWindowYears: percentileYears,
			// 기본값: 성과 퍼센타일과 동일한 윈도우
			InverseWindowYears: getEnvAsInt("ANALYTICS_INVERSE_WINDOW_YEARS", percentileYears),
			MinHistoryMonths:   getEnvAsInt("ANALYTICS_MIN_HISTORY_MONTHS", 24),
		},

		CacheTTL: getEnvAsDuration("CACHE_TTL", "10m"),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),

		ReloadSchedule: getEnv("RELOAD_SCHEDULE", ""),

		CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"*"}),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case SourceCSV, SourceXLSX, SourceHTML:
		if c.Data.Path == "" {
			return fmt.Errorf("DATA_PATH is required for %s source", c.Data.Source)
		}
	case SourceURL:
		if c.Data.URL == "" {
			return fmt.Errorf("DATA_URL is required for url source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres source")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: csv, xlsx, html, url, postgres")
	}

	if c.Data.DateColumn == "" {
		return fmt.Errorf("DATA_DATE_COLUMN must not be empty")
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
