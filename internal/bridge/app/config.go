package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer   string // Issuer claim for unified tokens
	Audience string // Optional: audience claim for unified tokens

	LegacyDatabaseFile string // Path to the legacy store's SQLite file (default: ./legacy.db)
	PortalDatabaseFile string // Path to the portal store's SQLite file (default: ./portal.db)
	PortalSecret       string // Required: HS256 secret shared with the portal system

	UnifiedTTL time.Duration // Unified token lifetime (default: 24h)
	NumKeys    int           // Number of signing keys to generate (default: 3)

	// Optional bootstrap: when both are set, ensure this legacy user and
	// opaque token exist on startup. Used by deploy smoke tests.
	SeedLegacyUser  string
	SeedLegacyToken string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:             getEnvOrDefault("BRIDGE_ISSUER", "auth-bridge"),
		Audience:           os.Getenv("BRIDGE_AUDIENCE"),
		LegacyDatabaseFile: getEnvOrDefault("BRIDGE_LEGACY_DATABASE_FILE", "legacy.db"),
		PortalDatabaseFile: getEnvOrDefault("BRIDGE_PORTAL_DATABASE_FILE", "portal.db"),
		PortalSecret:       os.Getenv("BRIDGE_PORTAL_SECRET"),

		UnifiedTTL: getEnvDurationOrDefault("BRIDGE_UNIFIED_TTL", 24*time.Hour),

		SeedLegacyUser:  os.Getenv("BRIDGE_SEED_LEGACY_USER"),
		SeedLegacyToken: os.Getenv("BRIDGE_SEED_LEGACY_TOKEN"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Parse number of signing keys (default: 3)
	if numKeysStr := os.Getenv("BRIDGE_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
		// If parsing fails, NumKeys remains 0 and the key manager uses its minimum
	}
	if cfg.NumKeys == 0 {
		cfg.NumKeys = 3
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
