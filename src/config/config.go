package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Paths
	MigrationsPath string
	StaticDir      string

	// Market-data provider settings
	ProviderTimeout  time.Duration
	ProviderCacheTTL time.Duration

	// Report settings
	RevenueHistoryYears int
	RecentSearchesLimit int
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("Info: No .env file found. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", err)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./searches.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		StaticDir:      getEnv("STATIC_DIR", "static"),

		ProviderTimeout:  getEnvAsDuration("PROVIDER_TIMEOUT", 20*time.Second),
		ProviderCacheTTL: getEnvAsDuration("PROVIDER_CACHE_TTL", 15*time.Minute),

		RevenueHistoryYears: getEnvAsInt("REVENUE_HISTORY_YEARS", 5),
		RecentSearchesLimit: getEnvAsInt("RECENT_SEARCHES_LIMIT", 10),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
