package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookingdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("BOOKING_API_URL", "http://localhost:3000/")

	yamlContent := `
api:
  base_url: "${BOOKING_API_URL}"
session:
  backend: memory
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, models.DefaultAPITimeoutSeconds, cfg.API.TimeoutSeconds)
	assert.Equal(t, models.SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 8, cfg.Grid.StartHour)
	assert.Equal(t, 18, cfg.Grid.EndHour)
	assert.Equal(t, 60, cfg.Grid.StepMinutes)
	assert.Equal(t, "bookingdesk", cfg.App.Name)
}

func TestLoadConfig_WithEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("api:\n  base_url: \"${BOOKINGDESK_TEST_URL}\"\n"), 0o644))

	require.NoError(t, os.WriteFile(".env", []byte("BOOKINGDESK_TEST_URL=http://example.test\n"), 0o644))
	defer os.Remove(".env")
	defer os.Unsetenv("BOOKINGDESK_TEST_URL")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", cfg.API.BaseURL)
	assert.Equal(t, models.SessionBackendSQLite, cfg.Session.Backend)
	assert.Equal(t, "data/session.db", cfg.Session.Path)
}

func TestLoadConfig_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		seconds string
		want    time.Duration
	}{
		{"unset uses default", "", models.DefaultAPITimeoutSeconds * time.Second},
		{"zero uses default", "  timeout_seconds: 0\n", models.DefaultAPITimeoutSeconds * time.Second},
		{"explicit", "  timeout_seconds: 3\n", 3 * time.Second},
		{"disabled", "  timeout_seconds: -1\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			content := "api:\n  base_url: http://localhost:3000\n" + tt.seconds + "session:\n  backend: memory\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.API.Timeout())
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			API:     APIConfig{BaseURL: "http://localhost:3000"},
			Session: SessionConfig{Backend: models.SessionBackendMemory},
			Grid:    GridConfig{StartHour: 8, EndHour: 18, StepMinutes: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"relative base url", func(c *Config) { c.API.BaseURL = "localhost" }, true},
		{"negative timeout", func(c *Config) { c.API.TimeoutSeconds = -2 }, true},
		{"disabled timeout", func(c *Config) { c.API.TimeoutSeconds = TimeoutDisabled }, false},
		{"unknown backend", func(c *Config) { c.Session.Backend = "cookie" }, true},
		{"sqlite without path", func(c *Config) { c.Session.Backend = models.SessionBackendSQLite }, true},
		{"redis without address", func(c *Config) { c.Session.Backend = models.SessionBackendRedis }, true},
		{"redis with address", func(c *Config) {
			c.Session.Backend = models.SessionBackendRedis
			c.Redis.Address = "localhost:6379"
		}, false},
		{"zero step", func(c *Config) { c.Grid.StepMinutes = 0 }, true},
		{"reversed grid", func(c *Config) { c.Grid.StartHour, c.Grid.EndHour = 18, 8 }, true},
		{"grid past midnight", func(c *Config) { c.Grid.EndHour = 24 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		API:        APIConfig{BaseURL: "http://x/", RateLimit: APIRateLimitConfig{RPS: 2}},
		Monitoring: MonitoringConfig{PrometheusEnabled: true},
	}
	cfg.applyDefaults()

	assert.Equal(t, "http://x", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.RateLimit.Burst)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, models.DefaultSessionTTLHours, cfg.Session.TTLHours)
	assert.Equal(t, "bookingdesk", cfg.Session.KeyPrefix)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestOptionalIntegrations(t *testing.T) {
	assert.False(t, GoogleConfig{}.Enabled())
	assert.False(t, GoogleConfig{CredentialsFile: "creds.json"}.Enabled())
	assert.True(t, GoogleConfig{CredentialsFile: "creds.json", SpreadsheetID: "sid"}.Enabled())

	assert.False(t, TelegramConfig{BotToken: "token"}.Enabled())
	assert.True(t, TelegramConfig{BotToken: "token", ChatID: -100}.Enabled())
}
