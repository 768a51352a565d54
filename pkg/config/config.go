// Package config aggregates environment-driven configuration for the server.
// Each infrastructure package owns its own section (database, llm); this
// package composes them with the server-level settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/noesis-forge/noesis/pkg/database"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr  string
	CORSOrigins []string // empty = allow all origins
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string // debug|info|warn|error
	Format string // text|json
}

// SessionConfig holds per-session pipeline settings.
type SessionConfig struct {
	MaxRounds int
}

// CleanupConfig controls the retention sweeper for old sessions.
type CleanupConfig struct {
	Enabled       bool
	RetentionDays int
	Interval      time.Duration
}

// Config is the resolved server configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Session  SessionConfig
	Cleanup  CleanupConfig
	Database database.Config
	LLM      llm.Config
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	llmCfg, err := llm.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}

	maxRounds, err := strconv.Atoi(getEnvOrDefault("SESSION_MAX_ROUNDS", strconv.Itoa(forge.DefaultMaxRounds)))
	if err != nil || maxRounds < 1 {
		return nil, fmt.Errorf("invalid SESSION_MAX_ROUNDS: %q", os.Getenv("SESSION_MAX_ROUNDS"))
	}

	retentionDays, err := strconv.Atoi(getEnvOrDefault("CLEANUP_RETENTION_DAYS", "365"))
	if err != nil || retentionDays < 1 {
		return nil, fmt.Errorf("invalid CLEANUP_RETENTION_DAYS: %q", os.Getenv("CLEANUP_RETENTION_DAYS"))
	}

	intervalHours, err := strconv.Atoi(getEnvOrDefault("CLEANUP_INTERVAL_HOURS", "12"))
	if err != nil || intervalHours < 1 {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL_HOURS: %q", os.Getenv("CLEANUP_INTERVAL_HOURS"))
	}

	return &Config{
		Server: ServerConfig{
			ListenAddr:  getEnvOrDefault("LISTEN_ADDR", ":8080"),
			CORSOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		Session: SessionConfig{
			MaxRounds: maxRounds,
		},
		Cleanup: CleanupConfig{
			Enabled:       getEnvOrDefault("CLEANUP_ENABLED", "false") == "true",
			RetentionDays: retentionDays,
			Interval:      time.Duration(intervalHours) * time.Hour,
		},
		Database: dbCfg,
		LLM:      llmCfg,
	}, nil
}

// splitOrigins parses a comma-separated origin list, dropping empty entries.
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
