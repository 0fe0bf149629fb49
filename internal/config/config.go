package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Identity provider choices
const (
	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	IdentityProvider  string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OpenBrowser        bool

	DatabaseURL     string
	RedisURL        string
	ProfileCacheTTL time.Duration

	SessionOperationTimeout time.Duration
	ReadyTimeout            time.Duration
	CredentialRatePerMinute int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var errs []string
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be a positive duration", key))
		}
		return d
	}

	port := getEnv("PORT", "8080")
	cfg := &Config{
		Port:           port,
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "development"),

		IdentityProvider:  strings.ToLower(getEnv("IDENTITY_PROVIDER", ProviderLocal)),
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:"+port+"/auth/google/callback"),
		OpenBrowser:        getBoolEnv("OPEN_BROWSER", true),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		ProfileCacheTTL: duration("PROFILE_CACHE_TTL", "10m"),

		SessionOperationTimeout: duration("SESSION_OPERATION_TIMEOUT", "10s"),
		ReadyTimeout:            duration("READY_TIMEOUT", "5s"),
		CredentialRatePerMinute: getIntEnv("CREDENTIAL_RATE_PER_MINUTE", 20),
	}

	switch cfg.IdentityProvider {
	case ProviderLocal:
	case ProviderSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			errs = append(errs, "SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase identity provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("IDENTITY_PROVIDER must be %q or %q", ProviderLocal, ProviderSupabase))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// GoogleEnabled reports whether federated sign-in is configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
