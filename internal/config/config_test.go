package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINANCE_API_URL", "")
	t.Setenv("FINANCE_HTTP_TIMEOUT", "")
	t.Setenv("FINANCE_DB_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	t.Setenv("MOCKAPI_CASING", "")
	t.Setenv("SEED_EMAIL", "")

	cfg := Load()

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, "session.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, "snake", cfg.MockCasing)
	assert.Empty(t, cfg.SeedEmail)
}

func TestLoadFromEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "session.db")
	t.Setenv("FINANCE_API_URL", "https://finance.example.com/")
	t.Setenv("FINANCE_HTTP_TIMEOUT", "15s")
	t.Setenv("FINANCE_DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("MOCKAPI_CASING", "go")
	t.Setenv("SEED_EMAIL", "seed@example.com")
	t.Setenv("SEED_PASSWORD", "seedpass123")
	t.Setenv("SEED_FIRST_NAME", "Seed")
	t.Setenv("SEED_LAST_NAME", "User")

	cfg := Load()

	assert.Equal(t, "https://finance.example.com", cfg.APIURL, "trailing slash is trimmed")
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, dbPath, cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "go", cfg.MockCasing)
	assert.Equal(t, "seed@example.com", cfg.SeedEmail)
	assert.Equal(t, "seedpass123", cfg.SeedPassword)
	assert.Equal(t, "Seed", cfg.SeedFirstName)
	assert.Equal(t, "User", cfg.SeedLastName)
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("FINANCE_HTTP_TIMEOUT", "soon")
	assert.Zero(t, Load().HTTPTimeout)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINANCE_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FINANCE_TEST_ONLY_KEY") })

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("FINANCE_TEST_ONLY_KEY"))

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIURL: "http://localhost:8080",
			DBPath: filepath.Join(t.TempDir(), "nested", "session.db"),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory database", mutate: func(c *Config) { c.DBPath = ":memory:" }},
		{name: "bad scheme", mutate: func(c *Config) { c.APIURL = "ftp://example.com" }, wantErr: "must be 'http' or 'https'"},
		{name: "missing host", mutate: func(c *Config) { c.APIURL = "http://" }, wantErr: "missing host"},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPTimeout = -time.Second }, wantErr: "must not be negative"},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: "database path cannot be empty"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "unknown log level"},
		{name: "port is not checked", mutate: func(c *Config) { c.Port = "http" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCreatesDatabaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	cfg := &Config{APIURL: DefaultAPIURL, DBPath: filepath.Join(dir, "session.db")}

	require.NoError(t, cfg.Validate())
	assert.DirExists(t, dir)
}

func TestValidateServer(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: "8080", JWTSecret: "secret", MockCasing: "snake"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "go casing", mutate: func(c *Config) { c.MockCasing = "GO" }},
		{name: "seeded", mutate: func(c *Config) { c.SeedEmail, c.SeedPassword = "a@example.com", "secret123" }},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: "must be a number"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "between 1 and 65535"},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT secret cannot be empty"},
		{name: "bad casing", mutate: func(c *Config) { c.MockCasing = "camel" }, wantErr: "must be 'snake' or 'go'"},
		{name: "seed email without password", mutate: func(c *Config) { c.SeedEmail = "a@example.com" }, wantErr: "must be set together"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateServer()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServerIgnoresDatabasePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never", "created")
	cfg := &Config{Port: "8080", JWTSecret: "secret", DBPath: filepath.Join(dir, "session.db")}

	require.NoError(t, cfg.ValidateServer())
	assert.NoDirExists(t, dir)
}
