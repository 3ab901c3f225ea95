package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitLab
	GitLabURL      string
	GitLabToken    string
	GitLabCookie   string
	CookieFile     string
	CSRFToken      string
	ContextMatch   string   // "exact" or "loose"
	ContextURLs    []string // browsing contexts whose headers may be used
	RequestTimeout time.Duration

	// Storage
	StorageType  string // "sqlite" or "postgres"
	SQLitePath   string
	PostgresURL  string
	HistoryLimit int

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load loads the configuration from environment variables. files are .env
// files to read first; without any, ./.env is used if present.
func Load(files ...string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, &ConfigError{Field: "config", Message: err.Error()}
		}
	} else {
		_ = godotenv.Load()
	}

	gitlabURL := strings.TrimRight(getEnv("GITLAB_URL", ""), "/")

	cfg := &Config{
		GitLabURL:      gitlabURL,
		GitLabToken:    getEnv("GITLAB_TOKEN", ""),
		GitLabCookie:   getEnv("GITLAB_COOKIE", ""),
		CookieFile:     getEnv("GITLAB_COOKIE_FILE", ""),
		CSRFToken:      getEnv("GITLAB_CSRF_TOKEN", ""),
		ContextMatch:   getEnv("GITLAB_CONTEXT_MATCH", "exact"),
		ContextURLs:    splitList(getEnv("GITLAB_CONTEXT_URLS", gitlabURL)),
		RequestTimeout: getDuration("GITLAB_REQUEST_TIMEOUT", 30*time.Second),
		StorageType:    getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./history.db"),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		HistoryLimit:   getInt("HISTORY_LIMIT", 50),
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "localhost"),
		APIEndpoint:    getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogJSON:        getBool("LOG_JSON", false),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if c.ContextMatch != "exact" && c.ContextMatch != "loose" {
		return &ConfigError{Field: "GITLAB_CONTEXT_MATCH", Message: "must be 'exact' or 'loose'"}
	}
	if c.HistoryLimit <= 0 {
		return &ConfigError{Field: "HISTORY_LIMIT", Message: "must be positive"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "GITLAB_REQUEST_TIMEOUT", Message: "must be positive"}
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_JSON. Logs go
// to stderr so command output on stdout stays machine readable.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
