// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/metcalfc/folio/internal/state"
	"github.com/metcalfc/folio/internal/window"
)

// Config holds the settings shared by both front ends.
type Config struct {
	// StateDir holds the session files and the terminal log.
	StateDir string
	// RedisURL selects the Redis session backend when set.
	RedisURL      string
	DragThreshold float64
	RetentionDays int
	LogLevel      string
	// RecoverActive rebuilds the last live window after a crash when no
	// shutdown layout exists.
	RecoverActive bool
	BookPath      string
}

// Load reads an optional .env file in the working directory, then the
// environment. Malformed numbers fall back to their defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		StateDir:      getenv("FOLIO_STATE_DIR", state.DefaultDir()),
		RedisURL:      getenv("FOLIO_REDIS_URL", ""),
		DragThreshold: getenvFloat("FOLIO_DRAG_THRESHOLD", window.DefaultDragThreshold),
		RetentionDays: getenvInt("FOLIO_RETENTION_DAYS", 30),
		LogLevel:      getenv("FOLIO_LOG_LEVEL", "info"),
		RecoverActive: getenvBool("FOLIO_RECOVER_ACTIVE", false),
		BookPath:      getenv("FOLIO_BOOK", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
