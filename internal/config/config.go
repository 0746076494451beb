package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv        string // "dev" or "production"
	ServerPort    int
	DatabasePath  string
	JWTSecret     string
	ResendAPIKey  string
	EmailFrom     string
	AvatarMaxSize int64 // bytes
}

// Load loads configuration from the environment, reading an optional .env
// file first. The JWT secret has no safe default and must be set.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	maxSizeStr := getEnv("AVATAR_MAX_SIZE", "1048576")
	maxSize, err := strconv.ParseInt(maxSizeStr, 10, 64)
	if err != nil {
		return nil, err
	}

	return &Config{
		AppEnv:        getEnv("APP_ENV", "dev"),
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./taskman.db"),
		JWTSecret:     secret,
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		EmailFrom:     getEnv("EMAIL_FROM", "taskman <noreply@taskman.app>"),
		AvatarMaxSize: maxSize,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
