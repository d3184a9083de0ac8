package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Host          string
	Port          string
	PublicBaseURL string

	UploadDir    string
	TempDir      string
	DatabasePath string

	APIKey string

	MaxFileAge         time.Duration
	CleanupInterval    time.Duration
	CompressionEnabled bool
	CompressionLevel   int

	Logger *slog.Logger
}

// New creates a new configuration instance from the environment and
// prepares the storage directories.
func New(logger *slog.Logger) *Config {
	cfg := &Config{
		Host:               envString("HOST", "0.0.0.0"),
		Port:               envString("PORT", "8080"),
		PublicBaseURL:      envString("PUBLIC_BASE_URL", ""),
		UploadDir:          envString("UPLOAD_FOLDER", "generated_pdfs"),
		APIKey:             envString("API_KEY", ""),
		MaxFileAge:         time.Duration(envInt("MAX_FILE_AGE_HOURS", 24)) * time.Hour,
		CleanupInterval:    time.Duration(envInt("CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute,
		CompressionEnabled: envBool("COMPRESSION_ENABLED", true),
		CompressionLevel:   envInt("COMPRESSION_LEVEL", 3),
		Logger:             logger,
	}

	cfg.TempDir = filepath.Join(cfg.UploadDir, "temp")
	cfg.DatabasePath = envString("DATABASE_PATH", filepath.Join(cfg.UploadDir, "records.sqlite3"))

	cfg.setupDirectories()

	return cfg
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) setupDirectories() {
	if err := os.MkdirAll(c.UploadDir, 0755); err != nil {
		c.Logger.Error("failed to create upload directory", "dir", c.UploadDir, "error", err)
	}
	if err := os.MkdirAll(c.TempDir, 0755); err != nil {
		c.Logger.Error("failed to create temp directory", "dir", c.TempDir, "error", err)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
