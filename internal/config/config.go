package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds phone verification and identity settings.
type AuthConfig struct {
	// AdminPhones is the operator-managed allowlist of administrator
	// phone numbers in E.164 form.
	AdminPhones []string

	// DefaultCountryCode is prepended to national numbers that arrive
	// without a leading +.
	DefaultCountryCode string

	// ChallengeTTL bounds how long a one-time code stays submittable.
	ChallengeTTL time.Duration

	// MaxCodeAttempts is the number of failed code submissions allowed
	// per challenge before the session is exhausted.
	MaxCodeAttempts int

	// ChallengeRateLimit / ChallengeRateWindow throttle challenge
	// issuance per phone number.
	ChallengeRateLimit  int
	ChallengeRateWindow time.Duration

	// Verification provider endpoint and credentials.
	ProviderBaseURL string
	ProviderAPIKey  string

	// ResetEmailDomain is the domain for synthesized driver login emails.
	ResetEmailDomain string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ride_identity"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ride-identity-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			AdminPhones:         getListEnv("AUTH_ADMIN_PHONES", nil),
			DefaultCountryCode:  getEnv("AUTH_DEFAULT_COUNTRY_CODE", "+971"),
			ChallengeTTL:        getDurationEnv("AUTH_CHALLENGE_TTL", 5*time.Minute),
			MaxCodeAttempts:     getIntEnv("AUTH_MAX_CODE_ATTEMPTS", 2),
			ChallengeRateLimit:  getIntEnv("AUTH_CHALLENGE_RATE_LIMIT", 5),
			ChallengeRateWindow: getDurationEnv("AUTH_CHALLENGE_RATE_WINDOW", time.Hour),
			ProviderBaseURL:     getEnv("AUTH_PROVIDER_BASE_URL", "https://identity.example.com"),
			ProviderAPIKey:      getEnv("AUTH_PROVIDER_API_KEY", ""),
			ResetEmailDomain:    getEnv("AUTH_RESET_EMAIL_DOMAIN", "drivers.rideid.app"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}
