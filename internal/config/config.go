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

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Booking  BookingConfig
	JWT      JWTConfig
	Notify   NotifyConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// ProviderConfig holds credentials for one mobile-money provider
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

// PaymentConfig holds mobile-money gateway configuration
type PaymentConfig struct {
	Mode     string // "mock" or "live"
	Currency string
	Timeout  time.Duration // caller-side timeout per gateway call
	MTN      ProviderConfig
	Airtel   ProviderConfig
}

// BookingConfig holds booking lifecycle configuration
type BookingConfig struct {
	// PendingTTL is how long a pending booking holds its seat before the
	// expiry sweeper releases it.
	PendingTTL time.Duration
	// RefundWindow is the minimum lead time before departure for an
	// automatic refund to be offered.
	RefundWindow time.Duration
	// GenerateDaysAhead is how far the occurrence generator looks forward.
	GenerateDaysAhead int
}

// JWTConfig holds operator token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// NotifyConfig holds SMS notification gateway configuration
type NotifyConfig struct {
	Mode     string // "dev" logs instead of sending
	APIURL   string
	APIKey   string
	SenderID string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Payment: PaymentConfig{
			Mode:     getEnv("PAYMENTS_MODE", "mock"),
			Currency: getEnv("PAYMENTS_CURRENCY", "UGX"),
			Timeout:  time.Duration(getEnvAsInt("PAYMENTS_TIMEOUT_SECONDS", 30)) * time.Second,
			MTN: ProviderConfig{
				BaseURL: getEnv("MTN_API_URL", "https://api.mtn.com/collection/v1"),
				APIKey:  getEnv("MTN_API_KEY", ""),
			},
			Airtel: ProviderConfig{
				BaseURL: getEnv("AIRTEL_API_URL", "https://openapi.airtel.africa/merchant/v1"),
				APIKey:  getEnv("AIRTEL_API_KEY", ""),
			},
		},
		Booking: BookingConfig{
			PendingTTL:        time.Duration(getEnvAsInt("BOOKING_PENDING_TTL_MINUTES", 15)) * time.Minute,
			RefundWindow:      time.Duration(getEnvAsInt("REFUND_WINDOW_MINUTES", 60)) * time.Minute,
			GenerateDaysAhead: getEnvAsInt("OCCURRENCE_DAYS_AHEAD", 60),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("JWT_TOKEN_EXPIRY", 28800)) * time.Second,
		},
		Notify: NotifyConfig{
			Mode:     getEnv("SMS_MODE", "dev"),
			APIURL:   getEnv("SMS_API_URL", ""),
			APIKey:   getEnv("SMS_API_KEY", ""),
			SenderID: getEnv("SMS_SENDER_ID", "TravelSuite"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Payment.Mode != "mock" && c.Payment.Mode != "live" {
		return fmt.Errorf("invalid PAYMENTS_MODE: %s (must be 'mock' or 'live')", c.Payment.Mode)
	}

	if c.Payment.Mode == "live" {
		if c.Payment.MTN.APIKey == "" {
			return fmt.Errorf("MTN_API_KEY is required in live payments mode")
		}
		if c.Payment.Airtel.APIKey == "" {
			return fmt.Errorf("AIRTEL_API_KEY is required in live payments mode")
		}
	}

	if c.Notify.Mode == "production" && c.Notify.APIURL == "" {
		return fmt.Errorf("SMS_API_URL is required in production SMS mode")
	}

	if c.Booking.PendingTTL < time.Minute {
		return fmt.Errorf("BOOKING_PENDING_TTL_MINUTES must be at least 1")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
