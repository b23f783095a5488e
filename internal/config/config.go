package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"bookingdesk/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Grid       GridConfig       `yaml:"grid"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	BaseURL        string             `yaml:"base_url"`
	TimeoutSeconds int                `yaml:"timeout_seconds"`
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
}

// TimeoutDisabled as timeout_seconds turns the per-request deadline off.
const TimeoutDisabled = -1

// Timeout is the per-request deadline. Zero means none.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GridConfig struct {
	StartHour   int `yaml:"start_hour"`
	EndHour     int `yaml:"end_hour"`
	StepMinutes int `yaml:"step_minutes"`
}

type SessionConfig struct {
	Backend   string `yaml:"backend"` // memory, sqlite, redis
	Path      string `yaml:"path"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"`
	Failover  bool   `yaml:"failover"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// GoogleConfig enables publishing day tables to a spreadsheet.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
}

func (g GoogleConfig) Enabled() bool {
	return g.CredentialsFile != "" && g.SpreadsheetID != ""
}

// TelegramConfig enables booking announcements in a chat.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// Load reads the YAML config at configPath. A .env file next to the working
// directory is loaded first when present; ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base url %q is not an absolute url", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < TimeoutDisabled {
		return fmt.Errorf("api timeout must be %d (disabled) or positive, got %d", TimeoutDisabled, c.API.TimeoutSeconds)
	}

	switch c.Session.Backend {
	case models.SessionBackendMemory:
	case models.SessionBackendSQLite:
		if c.Session.Path == "" {
			return errors.New("session.path is required for the sqlite backend")
		}
	case models.SessionBackendRedis:
		if c.Redis.Address == "" {
			return errors.New("redis.address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	return ValidateGrid(c.Grid)
}

// ValidateGrid checks the slot range without building it.
func ValidateGrid(g GridConfig) error {
	if g.StepMinutes <= 0 {
		return fmt.Errorf("grid.step_minutes must be positive, got %d", g.StepMinutes)
	}
	if g.StartHour < 0 || g.EndHour > 23 || g.EndHour < g.StartHour {
		return fmt.Errorf("invalid grid range %d..%d", g.StartHour, g.EndHour)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bookingdesk"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = models.DefaultAPITimeoutSeconds
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 5
	}

	if c.Grid.StartHour == 0 && c.Grid.EndHour == 0 {
		c.Grid.StartHour = models.DefaultGridStartHour
		c.Grid.EndHour = models.DefaultGridEndHour
	}
	if c.Grid.StepMinutes == 0 {
		c.Grid.StepMinutes = models.DefaultGridStepMinutes
	}

	if c.Session.Backend == "" {
		c.Session.Backend = models.SessionBackendSQLite
	}
	if c.Session.Backend == models.SessionBackendSQLite && c.Session.Path == "" {
		c.Session.Path = "data/session.db"
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "bookingdesk"
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = models.DefaultSessionTTLHours
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
