// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"
	LogLevel    string
	LogFormat   string

	// Storage
	DatabaseURL string
	RedisURL    string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Notifications
	RulesFile        string
	FallbackToAdmins bool
	Mail             MailConfig

	// Lifecycle
	OverdueSweepInterval time.Duration
	HazardDeadlineDays   int
	Location             *time.Location
}

// MailConfig selects and configures the email transport
type MailConfig struct {
	Transport    string // "smtp" | "http" | "log"
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	APIURL       string
	APIKey       string
	QueueKey     string
	Workers      int
	MaxAttempts  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		RulesFile:        getEnv("RULES_FILE", ""),
		FallbackToAdmins: getEnvBool("FALLBACK_TO_ADMINS", true),
		Mail: MailConfig{
			Transport:    getEnv("MAIL_TRANSPORT", "log"),
			From:         getEnv("MAIL_FROM", "ehs-noreply@localhost"),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			APIURL:       getEnv("MAIL_API_URL", ""),
			APIKey:       getEnv("MAIL_API_KEY", ""),
			QueueKey:     getEnv("MAIL_QUEUE", "ehs:mail"),
			Workers:      getEnvInt("MAIL_WORKERS", 2),
			MaxAttempts:  getEnvInt("MAIL_MAX_ATTEMPTS", 5),
		},

		OverdueSweepInterval: time.Duration(getEnvInt("OVERDUE_SWEEP_INTERVAL", 60)) * time.Minute,
		HazardDeadlineDays:   getEnvInt("HAZARD_DEADLINE_DAYS", 7),
		Location:             loc,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mail.Transport {
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_TRANSPORT=smtp")
		}
	case "http":
		if c.Mail.APIURL == "" {
			return fmt.Errorf("MAIL_API_URL is required when MAIL_TRANSPORT=http")
		}
	case "log":
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	if c.OverdueSweepInterval <= 0 {
		return fmt.Errorf("OVERDUE_SWEEP_INTERVAL must be positive")
	}

	// Validate required fields in production
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
