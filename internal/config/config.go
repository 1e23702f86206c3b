package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port          string
	PublicBaseURL string
	CORSOrigins   []string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// Object storage
	ObjectStore        string
	StorageDir         string
	StorageBucket      string
	GCSCredentialsFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	JWTSecret  string
	APIKeyHash string

	// Worker
	FollowUpInterval time.Duration
	ColdAfterDays    int

	LogLevel string
}

var (
	validBackends     = []string{"memory", "sqlite", "postgres"}
	validObjectStores = []string{"local", "gcs"}
)

func Load() *Config {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		Port:          port,
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/propcrm.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		ObjectStore:        getEnv("OBJECT_STORE", "local"),
		StorageDir:         getEnv("STORAGE_DIR", "./data/objects"),
		StorageBucket:      getEnv("STORAGE_BUCKET", "listing-photos"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "propcrm"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "followup_reminders"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		APIKeyHash: getEnv("API_KEY_HASH", ""),

		FollowUpInterval: getEnvDuration("FOLLOWUP_INTERVAL", time.Hour),
		ColdAfterDays:    getEnvInt("COLD_AFTER_DAYS", 7),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// AuthEnabled reports whether any credential check is configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.APIKeyHash != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", filepath.Dir(c.SQLiteDBPath), err))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	}

	if !slices.Contains(validObjectStores, c.ObjectStore) {
		errors = append(errors, fmt.Sprintf("invalid object store '%s': must be one of %v", c.ObjectStore, validObjectStores))
	}
	if c.StorageBucket == "" {
		errors = append(errors, "storage bucket cannot be empty")
	} else if strings.Contains(c.StorageBucket, "/") {
		errors = append(errors, fmt.Sprintf("invalid storage bucket '%s': must not contain '/'", c.StorageBucket))
	}
	switch c.ObjectStore {
	case "local":
		if c.StorageDir == "" {
			errors = append(errors, "STORAGE_DIR cannot be empty when using local object store")
		}
	case "gcs":
		if c.GCSCredentialsFile != "" {
			if _, err := os.Stat(c.GCSCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("GCS credentials file does not exist: %s", c.GCSCredentialsFile))
			}
		}
	}

	if u, err := url.Parse(c.PublicBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid public base URL '%s': must be an absolute http(s) URL", c.PublicBaseURL))
	}

	// AMQP is optional; when configured it must be complete.
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT secret must be at least 16 characters")
	}
	if c.APIKeyHash != "" && !strings.HasPrefix(c.APIKeyHash, "$2") {
		errors = append(errors, "API key hash must be a bcrypt hash")
	}

	if c.FollowUpInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid follow-up interval %v: must be at least 1 minute", c.FollowUpInterval))
	} else if c.FollowUpInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid follow-up interval %v: must be at most 24 hours", c.FollowUpInterval))
	}
	if c.ColdAfterDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid cold-after days %d: must be at least 1", c.ColdAfterDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
