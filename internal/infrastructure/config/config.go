// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB (primary store)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL (fallback ledger)
	PostgresURI string

	// Redis (directory cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Directory service
	DirectoryBaseURL  string
	DirectoryToken    string
	DirectoryCacheTTL time.Duration

	// Matching engine
	DefaultRadiusKm  float64
	RetentionWindow  time.Duration
	BackfillInterval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "electrician"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=electrician_ledger port=5432 sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DirectoryBaseURL:  getEnv("DIRECTORY_BASE_URL", "http://localhost:8090"),
		DirectoryToken:    getEnv("DIRECTORY_TOKEN", ""),
		DirectoryCacheTTL: time.Duration(getEnvAsInt("DIRECTORY_CACHE_TTL", 5)) * time.Second,

		DefaultRadiusKm:  getEnvAsFloat("DEFAULT_RADIUS_KM", 15),
		RetentionWindow:  time.Duration(getEnvAsInt("RETENTION_WINDOW_MINUTES", 60)) * time.Minute,
		BackfillInterval: time.Duration(getEnvAsInt("BACKFILL_INTERVAL", 300)) * time.Second,
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
