package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// SecretKey signs challenge tickets and CSRF tokens. Generated per
	// process when unset, which invalidates outstanding tickets on restart.
	SecretKey string

	SessionDuration   time.Duration
	ChallengeDuration time.Duration
	SignupDuration    time.Duration

	DefaultGridSize int

	StaticFilesPath string
	TemplatesPath   string
	MigrationsPath  string

	AppBaseURL string

	// SES email notifications; disabled when SESFromEmail is empty.
	SESRegion    string
	SESFromEmail string
	SESFromName  string

	// OAuth sign-in; a provider is offered only when both values are set.
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string
}

// Load reads configuration from the environment (and a .env file if present)
// with sensible defaults.
func Load() *Config {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./keymoji.db"),
		DatabaseURL:  getEnv("DB_URL", ""),

		SecretKey: getSecretKey(),

		SessionDuration:   getEnvDuration("SESSION_DURATION", 24*time.Hour),
		ChallengeDuration: getEnvDuration("CHALLENGE_DURATION", 10*time.Minute),
		SignupDuration:    getEnvDuration("SIGNUP_DURATION", 30*time.Minute),

		DefaultGridSize: getEnvInt("DEFAULT_GRID_SIZE", 4),

		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		TemplatesPath:   getEnv("TEMPLATES_PATH", "./templates"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),

		SESRegion:    getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "KeyMoji"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getSecretKey() string {
	if key := os.Getenv("SECRET_KEY"); key != "" {
		return key
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate secret key: %v", err)
	}
	log.Println("Warning: SECRET_KEY not set, using a generated key; challenge tickets will not survive restarts")
	return hex.EncodeToString(buf)
}
