// Package common provides shared utilities for stockinfo
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for stockinfo
type Config struct {
	Environment string        `toml:"environment" yaml:"environment"`
	Server      ServerConfig  `toml:"server" yaml:"server"`
	Clients     ClientsConfig `toml:"clients" yaml:"clients"`
	Report      ReportConfig  `toml:"report" yaml:"report"`
	Logging     LoggingConfig `toml:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `toml:"host" yaml:"host"`
	Port         int    `toml:"port" yaml:"port"`
	ReadTimeout  string `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout" yaml:"write_timeout"`
}

// GetReadTimeout parses and returns the read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout parses and returns the write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 120*time.Second)
}

// ClientsConfig holds upstream client configurations
type ClientsConfig struct {
	KIND  KINDConfig  `toml:"kind" yaml:"kind"`
	Yahoo YahooConfig `toml:"yahoo" yaml:"yahoo"`
}

// KINDConfig holds KRX KIND listing client configuration
type KINDConfig struct {
	BaseURL   string `toml:"base_url" yaml:"base_url"`
	RateLimit int    `toml:"rate_limit" yaml:"rate_limit"`
	Timeout   string `toml:"timeout" yaml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KINDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// YahooConfig holds Yahoo Finance chart client configuration
type YahooConfig struct {
	BaseURL    string `toml:"base_url" yaml:"base_url"`
	RateLimit  int    `toml:"rate_limit" yaml:"rate_limit"`
	Timeout    string `toml:"timeout" yaml:"timeout"`
	Timezone   string `toml:"timezone" yaml:"timezone"`       // exchange zone used for period1/period2
	AutoAdjust bool   `toml:"auto_adjust" yaml:"auto_adjust"` // scale OHLC by adjusted close
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	PreviewRows int    `toml:"preview_rows" yaml:"preview_rows"`
	ChartWidth  int    `toml:"chart_width" yaml:"chart_width"`
	ChartHeight int    `toml:"chart_height" yaml:"chart_height"`
	ChartFont   string `toml:"chart_font" yaml:"chart_font"` // optional TTF path; needed for Hangul titles
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8501,
			ReadTimeout:  "30s",
			WriteTimeout: "120s",
		},
		Clients: ClientsConfig{
			KIND: KINDConfig{
				BaseURL:   "http://kind.krx.co.kr",
				RateLimit: 2,
				Timeout:   "30s",
			},
			Yahoo: YahooConfig{
				BaseURL:    "https://query1.finance.yahoo.com",
				RateLimit:  5,
				Timeout:    "30s",
				Timezone:   "Asia/Seoul",
				AutoAdjust: true,
			},
		},
		Report: ReportConfig{
			PreviewRows: 5,
			ChartWidth:  1200,
			ChartHeight: 400,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := unmarshalConfig(path, data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if config.Report.PreviewRows <= 0 {
		config.Report.PreviewRows = 5
	}

	return config, nil
}

// unmarshalConfig decodes YAML for .yaml/.yml files and TOML otherwise
func unmarshalConfig(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return toml.Unmarshal(data, config)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKINFO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKINFO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKINFO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKINFO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("STOCKINFO_KIND_BASE_URL"); v != "" {
		config.Clients.KIND.BaseURL = v
	}
	if v := os.Getenv("STOCKINFO_YAHOO_BASE_URL"); v != "" {
		config.Clients.Yahoo.BaseURL = v
	}
	if v := os.Getenv("STOCKINFO_CHART_FONT"); v != "" {
		config.Report.ChartFont = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
