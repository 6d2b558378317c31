package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"quote-charts/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Environment variables that override the YAML file
const (
	EnvFeedURL  = "QUOTES_FEED_URL"
	EnvHost     = "QUOTES_HOST"
	EnvPort     = "QUOTES_PORT"
	EnvLogLevel = "QUOTES_LOG_LEVEL"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// DefaultRanges mirrors the tabs offered by the chart screen
func DefaultRanges() []models.MRange {
	return []models.MRange{
		{Key: "1D", Label: "Hoy", Days: 1, LabelStride: 1},
		{Key: "1W", Label: "1 Sem", Days: 7, LabelStride: 1},
		{Key: "1M", Label: "1 Mes", Days: 30, LabelStride: 5},
		{Key: "2M", Label: "2 Meses", Days: 60, LabelStride: 10},
	}
}

// -----------------------------------------------------------------------------

// Default returns the built-in configuration
func Default() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:      "quote-charts",
		Host:      "127.0.0.1",
		Port:      8000,
		LogLevel:  "INFO",
		LogFormat: "console",
		GrpcPort:  50051,
		Timezone:  "Local",
		Feed: models.MFeedConfig{
			URL:            "ws://127.0.0.1:15181",
			ReadLimitBytes: 4 * 1024 * 1024,
			EventBuffer:    256,
		},
		Store: models.MStoreConfig{IntradayCapacity: 500},
		Chart: models.MChartConfig{
			Width:        335,
			DefaultRange: "1M",
			Ranges:       DefaultRanges(),
		},
		Storage: models.MStorageConfig{
			Enabled: false,
			DBType:  "sqlite",
			DBPath:  "quote-charts.db",
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig creates a Config from a YAML file layered over Default()
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal over defaults so omitted keys keep their value
	config := Default()
	if err := yaml.Unmarshal(data, config.MConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}
	if len(config.Chart.Ranges) == 0 {
		config.Chart.Ranges = DefaultRanges()
	}

	// 3. Environment overrides (.env is optional)
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv loads .env (if present) and overrides fields from the environment
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv(EnvFeedURL); ok && v != "" {
		c.Feed.URL = v
	}
	if v, ok := os.LookupEnv(EnvHost); ok && v != "" {
		c.Host = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", EnvPort, v, err)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}

	// Feed
	u, err := url.Parse(c.Feed.URL)
	if err != nil {
		return fmt.Errorf("invalid feed url '%s': %w", c.Feed.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("feed url must use ws or wss, got '%s'", u.Scheme)
	}
	if c.Feed.ReadLimitBytes < 0 {
		return fmt.Errorf("feed read limit cannot be negative")
	}
	if c.Feed.EventBuffer <= 0 {
		return fmt.Errorf("feed event buffer must be greater than 0")
	}

	// Store
	if c.Store.IntradayCapacity <= 0 {
		return fmt.Errorf("intraday capacity must be greater than 0")
	}

	// Chart
	if c.Chart.Width <= 0 {
		return fmt.Errorf("chart width must be greater than 0")
	}
	seen := make(map[string]bool)
	for i, r := range c.Chart.Ranges {
		if r.Key == "" {
			return fmt.Errorf("range %d must have a key", i)
		}
		if seen[r.Key] {
			return fmt.Errorf("duplicate range key '%s'", r.Key)
		}
		seen[r.Key] = true
		if r.Days <= 0 {
			return fmt.Errorf("range '%s' must cover at least one day", r.Key)
		}
		if r.LabelStride <= 0 {
			return fmt.Errorf("range '%s' label stride must be greater than 0", r.Key)
		}
	}
	if c.Chart.DefaultRange != "" && !seen[c.Chart.DefaultRange] {
		return fmt.Errorf("default range '%s' is not configured", c.Chart.DefaultRange)
	}

	// Storage
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}
	if c.Storage.Enabled {
		switch c.Storage.DBType {
		case "sqlite":
			if c.Storage.DBPath == "" {
				return fmt.Errorf("database path cannot be empty for sqlite")
			}
		case "postgres":
			if c.Storage.DBConnectionString == "" {
				return fmt.Errorf("connection string cannot be empty for postgres")
			}
		default:
			return fmt.Errorf("unsupported database type '%s'", c.Storage.DBType)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Location resolves the configured timezone ("" and "Local" mean time.Local)
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
