package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// COIN_JOURNAL_BASE_URL.
const EnvPrefix = "COIN_"

// Config represents the complete dashboard configuration
type Config struct {
	Journal  JournalConfig  `json:"journal" yaml:"journal" envPrefix:"JOURNAL_"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest" envPrefix:"BACKTEST_"`
	Server   ServerConfig   `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `json:"log" yaml:"log" envPrefix:"LOG_"`
}

// JournalConfig points at the trade journal service
type JournalConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" env:"BASE_URL"`
	// UpdateMethod is PUT or PATCH, whichever the service accepts.
	UpdateMethod string        `json:"update_method" yaml:"update_method" env:"UPDATE_METHOD"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// BacktestConfig points at the backtest service
type BacktestConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// ServerConfig configures the development journal backend
type ServerConfig struct {
	Addr          string        `json:"addr" yaml:"addr" env:"ADDR"`
	DBPath        string        `json:"db_path" yaml:"db_path" env:"DB_PATH"`
	CacheTTL      time.Duration `json:"cache_ttl" yaml:"cache_ttl" env:"CACHE_TTL"`
	PriceInterval time.Duration `json:"price_interval" yaml:"price_interval" env:"PRICE_INTERVAL"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `json:"level" yaml:"level" env:"LEVEL"`
	Development bool   `json:"development" yaml:"development" env:"DEVELOPMENT"`
	// File, when set, receives log output instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty" env:"FILE"`
}

// Load builds the effective configuration: defaults, then the config file
// at path (if any), then envFile (if it exists), then COIN_ environment
// variables. The result is validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML), on top of
// the defaults. Environment variables are not consulted.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.decodeFile(path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, c); err != nil {
		if jerr := json.Unmarshal(data, c); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := checkURL("journal.base_url", c.Journal.BaseURL); err != nil {
		return err
	}
	switch strings.ToUpper(c.Journal.UpdateMethod) {
	case http.MethodPut, http.MethodPatch:
	default:
		return fmt.Errorf("journal.update_method must be PUT or PATCH")
	}
	if c.Journal.Timeout <= 0 {
		return fmt.Errorf("journal.timeout must be positive")
	}

	if err := checkURL("backtest.base_url", c.Backtest.BaseURL); err != nil {
		return err
	}
	if c.Backtest.Timeout <= 0 {
		return fmt.Errorf("backtest.timeout must be positive")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.DBPath == "" {
		return fmt.Errorf("server.db_path is required")
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative")
	}
	if c.Server.PriceInterval <= 0 {
		return fmt.Errorf("server.price_interval must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			BaseURL:      "http://localhost:8000/api",
			UpdateMethod: http.MethodPut,
			Timeout:      10 * time.Second,
		},
		Backtest: BacktestConfig{
			BaseURL: "http://localhost:5001",
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{
			Addr:          ":8000",
			DBPath:        "./coin.db",
			CacheTTL:      30 * time.Second,
			PriceInterval: 3 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
