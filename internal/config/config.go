// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth (empty secret = random per-process secret)
	JWTSecret    string
	DemoPassword string

	// Seeded data
	FetchDelay time.Duration

	// Inbox
	MaxAttachmentSize int64

	// Quotas
	StorageLimit      int64
	RequestsPerMinute int

	// Snapshots ("none", "local", "postgres", "sqlite", "s3")
	SnapshotBackend string
	SnapshotRestore bool
	SnapshotPath    string
	DatabaseURL     string
	SQLitePath      string

	// S3 snapshot target
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Key       string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:       envOr("METRICS_ADDR", ":9090"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "json"),
		JWTSecret:         envOr("JWT_SECRET", ""),
		DemoPassword:      envOr("DEMO_PASSWORD", "demo"),
		FetchDelay:        envDuration("FETCH_DELAY", 800*time.Millisecond),
		MaxAttachmentSize: envInt64("MAX_ATTACHMENT_SIZE", 10*1024*1024), // 10MB
		StorageLimit:      envInt64("STORAGE_LIMIT", 15*1024*1024*1024),  // 15GB
		RequestsPerMinute: envInt("REQUESTS_PER_MINUTE", 0),              // 0 = unlimited
		SnapshotBackend:   envOr("SNAPSHOT_BACKEND", "none"),
		SnapshotRestore:   envBool("SNAPSHOT_RESTORE", false),
		SnapshotPath:      envOr("SNAPSHOT_PATH", "cloudex-snapshot.json"),
		DatabaseURL:       envOr("DATABASE_URL", ""),
		SQLitePath:        envOr("SQLITE_PATH", "cloudex.db"),
		S3Endpoint:        envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:          envOr("S3_BUCKET", "cloudex"),
		S3AccessKey:       envOr("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:       envOr("S3_SECRET_KEY", "minioadmin"),
		S3Region:          envOr("S3_REGION", "us-east-1"),
		S3Key:             envOr("S3_SNAPSHOT_KEY", "snapshots/cloudex.json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.SnapshotBackend {
	case "none", "local", "sqlite", "s3":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres snapshot backend")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}
	if c.SnapshotRestore && c.SnapshotBackend == "none" {
		return fmt.Errorf("SNAPSHOT_RESTORE requires a SNAPSHOT_BACKEND")
	}
	if c.MaxAttachmentSize <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_SIZE must be positive")
	}
	if c.StorageLimit < 0 {
		return fmt.Errorf("STORAGE_LIMIT must not be negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("REQUESTS_PER_MINUTE must not be negative")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
