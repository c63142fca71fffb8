package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/example/recall/internal/scheduler"
)

// Config holds everything the daemon reads from the environment
type Config struct {
	// "postgres" (default) or "sqlite"
	DBType string
	// Postgres DSN, required when DBType is postgres
	DatabaseURL string
	// SQLite file path, optional
	SQLitePath string
	// Digest window, hours in [0,23]
	DigestStartHour int
	DigestEndHour   int
}

// Load reads the configuration from a .env file (if present) and the
// environment. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBType:          getEnv("DB_TYPE", "postgres"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		DigestStartHour: getEnvHour("DIGEST_START_HOUR", scheduler.DefaultDigestStartHour),
		DigestEndHour:   getEnvHour("DIGEST_END_HOUR", scheduler.DefaultDigestEndHour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvHour(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
