package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string // service role key, server side only
	SupabaseAnonKey string // public key sent by editor clients
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	FunctionsURL    string // Base URL of the content functions, default SupabaseURL + /functions/v1
	CORSOrigins     string
	TablePrefix     string
	DevUserID       string // fixed user for local servers without a JWKS endpoint
	AccessToken     string // user access token for the editor CLI
	// Editor sync
	AutoSaveInterval time.Duration
	MessageTTL       time.Duration
	APITimeout       time.Duration
	APIMaxRetries    int
	APIRetryBase     time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool // Enables debug logging and verbose error details
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	// Construct JWKS URL from Supabase URL
	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	functionsURL := getEnv("FUNCTIONS_URL", "")
	if functionsURL == "" && supabaseURL != "" {
		functionsURL = supabaseURL + "/functions/v1"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		FunctionsURL:    strings.TrimRight(functionsURL, "/"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:     tablePrefix,
		DevUserID:       getEnv("DEV_USER_ID", ""),
		AccessToken:     getEnv("ACCESS_TOKEN", ""),
		// Editor sync
		AutoSaveInterval: getDuration("AUTOSAVE_INTERVAL", DefaultAutoSaveInterval),
		MessageTTL:       getDuration("MESSAGE_TTL", DefaultMessageTTL),
		APITimeout:       getDuration("API_TIMEOUT", 15*time.Second),
		APIMaxRetries:    getInt("API_MAX_RETRIES", 3),
		APIRetryBase:     getDuration("API_RETRY_BASE", 200*time.Millisecond),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// LogLevel returns the slog level for the environment
func (c *Config) LogLevel() slog.Level {
	if c.Environment == "dev" || c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	case "dev":
		return "dev_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare numbers are milliseconds, matching the editor settings screen
	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}
