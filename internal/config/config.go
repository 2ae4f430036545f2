package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finance-client/internal/log"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is used when FINANCE_API_URL is not set.
const DefaultAPIURL = "http://localhost:8080"

type Config struct {
	// Backend
	APIURL      string
	HTTPTimeout time.Duration

	// Client-local storage
	DBPath string

	// Logging
	LogLevel string

	// Fake backend (cmd/mockapi)
	Port          string
	JWTSecret     string
	MockCasing    string
	SeedEmail     string
	SeedPassword  string
	SeedFirstName string
	SeedLastName  string
}

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error; variables already present in the environment win.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads configuration from the environment after loading .env.
func Load() *Config {
	LoadEnvFile()

	return &Config{
		APIURL:      strings.TrimSuffix(getEnv("FINANCE_API_URL", DefaultAPIURL), "/"),
		HTTPTimeout: getEnvDuration("FINANCE_HTTP_TIMEOUT", 0),

		DBPath: getEnv("FINANCE_DB_PATH", defaultDBPath()),

		LogLevel: getEnv("LOG_LEVEL", ""),

		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		MockCasing:    getEnv("MOCKAPI_CASING", "snake"),
		SeedEmail:     getEnv("SEED_EMAIL", ""),
		SeedPassword:  getEnv("SEED_PASSWORD", ""),
		SeedFirstName: getEnv("SEED_FIRST_NAME", ""),
		SeedLastName:  getEnv("SEED_LAST_NAME", ""),
	}
}

// Validate checks the client settings used by finctl and creates the
// database directory.
func (c *Config) Validate() error {
	var errors []string

	if parsed, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	if c.HTTPTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must not be negative", c.HTTPTimeout))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if c.DBPath != ":memory:" {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	return joinErrors(errors)
}

// ValidateServer checks the settings used by the mock backend. It never
// touches the client database path.
func (c *Config) ValidateServer() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT secret cannot be empty")
	}

	switch strings.ToLower(c.MockCasing) {
	case "", "snake", "go":
	default:
		errors = append(errors, fmt.Sprintf("invalid casing '%s': must be 'snake' or 'go'", c.MockCasing))
	}

	if (c.SeedEmail == "") != (c.SeedPassword == "") {
		errors = append(errors, "SEED_EMAIL and SEED_PASSWORD must be set together")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	return joinErrors(errors)
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".finctl", "session.db")
	}
	return filepath.Join(home, ".finctl", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
