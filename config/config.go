package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DBDriver           string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3PublicURL     string
	KafkaBrokers       []string
	KafkaOrdersTopic   string
	LogLevel           string
	CORSAllowedOrigins []string

	// Order lifecycle knobs
	ExtraUnitPrice          float64
	CompletedVisibilityDays int
	LateWindowDays          int
	Timezone                string
}

var currentConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	extraUnitPrice, err := strconv.ParseFloat(getEnv("EXTRA_UNIT_PRICE", "2000"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EXTRA_UNIT_PRICE: %w", err)
	}

	completedDays, err := strconv.Atoi(getEnv("COMPLETED_VISIBILITY_DAYS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPLETED_VISIBILITY_DAYS: %w", err)
	}

	lateDays, err := strconv.Atoi(getEnv("LATE_WINDOW_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_WINDOW_DAYS: %w", err)
	}

	config := &Config{
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBDriver:                strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		Port:                    getEnv("PORT", "8080"),
		GoEnv:                   getEnv("GO_ENV", "development"),
		Auth0Domain:             getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:           getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:             getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSS3PublicURL:          getEnv("AWS_S3_PUBLIC_URL", ""),
		KafkaBrokers:            splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaOrdersTopic:        getEnv("KAFKA_ORDERS_TOPIC", "atelier.orders"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		ExtraUnitPrice:          extraUnitPrice,
		CompletedVisibilityDays: completedDays,
		LateWindowDays:          lateDays,
		Timezone:                getEnv("APP_TIMEZONE", "UTC"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	currentConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be one of postgres, mysql, sqlite (got %q)", c.DBDriver)
	}
	if c.ExtraUnitPrice < 0 {
		return fmt.Errorf("EXTRA_UNIT_PRICE must not be negative")
	}
	if c.CompletedVisibilityDays <= 0 {
		return fmt.Errorf("COMPLETED_VISIBILITY_DAYS must be positive")
	}
	if c.LateWindowDays < 0 {
		return fmt.Errorf("LATE_WINDOW_DAYS must not be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

// Location returns the time zone used for calendar-day arithmetic.
// Validate guarantees the name resolves, so a failure here falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CompletedVisibility returns how long a completed order stays on the board.
func (c *Config) CompletedVisibility() time.Duration {
	return time.Duration(c.CompletedVisibilityDays) * 24 * time.Hour
}

// GetConfig returns the configuration produced by the last successful Load
func GetConfig() *Config {
	return currentConfig
}

// SetConfig sets the process-wide configuration (primarily for testing)
func SetConfig(cfg *Config) {
	currentConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
