package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL    string
	SnapshotPath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HTTPTimeout   time.Duration
	LoginDelay    time.Duration
	AdminEmail    string
	AdminPassword string
}

// LoadConfig reads configuration from the environment, preceded by a
// best-effort .env load for local development. Every value has a default
// except the admin credentials, which stay empty until provided.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000"),
		SnapshotPath:  getEnv("SNAPSHOT_DB_PATH", "./shoppingmall.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		LoginDelay:    getEnvDuration("LOGIN_DELAY", 500*time.Millisecond),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration environment variable, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
