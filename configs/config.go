package configs

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Rates    RatesConfig
	Client   ClientConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	OpsPort string
	Env     string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// KafkaConfig holds Kafka configuration. Empty Brokers disables the
// producer.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	Threshold float64
}

// RatesConfig holds exchange-rate provider configuration
type RatesConfig struct {
	BaseURL       string
	BaseCurrency  string
	CacheTTL      time.Duration
	PendingMaxAge time.Duration
}

// ClientConfig holds settings for the terminal client
type ClientConfig struct {
	BaseURL  string
	DataDir  string
	Email    string
	Password string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "8081"),
			Env:     getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Kafka: KafkaConfig{
			Brokers:   getEnvList("KAFKA_BROKERS", nil),
			Topic:     getEnv("KAFKA_TOPIC", "large-activities"),
			Threshold: getEnvFloat("KAFKA_AMOUNT_THRESHOLD", 10000),
		},
		Rates: RatesConfig{
			BaseURL:       getEnv("RATES_API_URL", "https://api.exchangerate.host"),
			BaseCurrency:  getEnv("RATES_BASE_CURRENCY", "USD"),
			CacheTTL:      getEnvDuration("RATES_CACHE_TTL", 10*time.Minute),
			PendingMaxAge: getEnvDuration("PENDING_MAX_AGE", 72*time.Hour),
		},
		Client: ClientConfig{
			BaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
			DataDir:  getEnv("CLIENT_DATA_DIR", ".investra"),
			Email:    getEnv("CLIENT_EMAIL", ""),
			Password: getEnv("CLIENT_PASSWORD", ""),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList parses a comma-separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvFloat parses a float environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable (e.g. "10m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
