// Package config provides configuration loading and management for pagefetch.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pagefetch configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	NATS    NATSConfig    `yaml:"nats"`
	Safety  SafetyConfig  `yaml:"safety"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Browser BrowserConfig `yaml:"browser"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error (default: info)
	Level string `yaml:"level"`
}

// SlogLevel returns the slog level for the configured level string.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	// Addr is the listen address (default: ":8000")
	Addr string `yaml:"addr"`
	// ReadTimeout bounds reading an incoming request (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// ShutdownTimeout bounds graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NATSConfig configures the NATS request/reply facade
type NATSConfig struct {
	// URL is the NATS server URL (empty = facade disabled)
	URL string `yaml:"url"`
	// Subject is the request subject to subscribe on
	Subject string `yaml:"subject"`
}

// SafetyConfig configures URL safety validation
type SafetyConfig struct {
	// BlockedHosts are extra hostname glob patterns to reject
	BlockedHosts []string `yaml:"blocked_hosts"`
	// BlocklistFile is an optional pattern file, reloaded on change
	BlocklistFile string `yaml:"blocklist_file"`
}

// FetchConfig configures the direct fetcher
type FetchConfig struct {
	// UserAgent overrides the built-in browser user-agent string
	UserAgent string `yaml:"user_agent"`
	// AllowedContentTypes overrides the Content-Type prefix allowlist
	AllowedContentTypes []string `yaml:"allowed_content_types"`
}

// BrowserConfig configures the rendered fetcher
type BrowserConfig struct {
	// UserAgent overrides the built-in browser user-agent string
	UserAgent string `yaml:"user_agent"`
	// Locale is the browser locale (default: ja-JP)
	Locale string `yaml:"locale"`
	// Timezone is the browser timezone (default: Asia/Tokyo)
	Timezone string `yaml:"timezone"`
	// ViewportWidth is the browser viewport width (default: 1280)
	ViewportWidth int `yaml:"viewport_width"`
	// ViewportHeight is the browser viewport height (default: 800)
	ViewportHeight int `yaml:"viewport_height"`
	// ConsentSelectors overrides the consent-dialog selector list
	ConsentSelectors []string `yaml:"consent_selectors"`
}

// LimitsConfig configures request limits and their defaults
type LimitsConfig struct {
	// DefaultTimeout is the per-request fetch timeout (default: 30s, range 1s-600s)
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// DefaultJSWait is the browser post-render wait (default: 3s, range 0-60s)
	DefaultJSWait time.Duration `yaml:"default_js_wait"`
	// MaxBytes caps the raw body size (default: 2000000, range 10000-50000000)
	MaxBytes int64 `yaml:"max_bytes"`
	// MaxChars caps the returned text length (default: 1000000, range 10000-10000000)
	MaxChars int `yaml:"max_chars"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		NATS: NATSConfig{
			URL:     "",
			Subject: "pagefetch.content.get",
		},
		Safety: SafetyConfig{
			BlockedHosts:  nil,
			BlocklistFile: "",
		},
		Fetch: FetchConfig{
			UserAgent:           "", // Use built-in
			AllowedContentTypes: nil,
		},
		Browser: BrowserConfig{
			UserAgent:        "", // Use built-in
			Locale:           "ja-JP",
			Timezone:         "Asia/Tokyo",
			ViewportWidth:    1280,
			ViewportHeight:   800,
			ConsentSelectors: nil,
		},
		Limits: LimitsConfig{
			DefaultTimeout: 30 * time.Second,
			DefaultJSWait:  3 * time.Second,
			MaxBytes:       2_000_000,
			MaxChars:       1_000_000,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	if c.Limits.DefaultTimeout < time.Second || c.Limits.DefaultTimeout > 600*time.Second {
		return fmt.Errorf("limits.default_timeout must be between 1s and 600s")
	}
	if c.Limits.DefaultJSWait < 0 || c.Limits.DefaultJSWait > 60*time.Second {
		return fmt.Errorf("limits.default_js_wait must be between 0 and 60s")
	}
	if c.Limits.MaxBytes < 10_000 || c.Limits.MaxBytes > 50_000_000 {
		return fmt.Errorf("limits.max_bytes must be between 10000 and 50000000")
	}
	if c.Limits.MaxChars < 10_000 || c.Limits.MaxChars > 10_000_000 {
		return fmt.Errorf("limits.max_chars must be between 10000 and 10000000")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ReadTimeout != 0 {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Safety
	if len(other.Safety.BlockedHosts) > 0 {
		c.Safety.BlockedHosts = other.Safety.BlockedHosts
	}
	if other.Safety.BlocklistFile != "" {
		c.Safety.BlocklistFile = other.Safety.BlocklistFile
	}

	// Fetch
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}
	if len(other.Fetch.AllowedContentTypes) > 0 {
		c.Fetch.AllowedContentTypes = other.Fetch.AllowedContentTypes
	}

	// Browser
	if other.Browser.UserAgent != "" {
		c.Browser.UserAgent = other.Browser.UserAgent
	}
	if other.Browser.Locale != "" {
		c.Browser.Locale = other.Browser.Locale
	}
	if other.Browser.Timezone != "" {
		c.Browser.Timezone = other.Browser.Timezone
	}
	if other.Browser.ViewportWidth != 0 {
		c.Browser.ViewportWidth = other.Browser.ViewportWidth
	}
	if other.Browser.ViewportHeight != 0 {
		c.Browser.ViewportHeight = other.Browser.ViewportHeight
	}
	if len(other.Browser.ConsentSelectors) > 0 {
		c.Browser.ConsentSelectors = other.Browser.ConsentSelectors
	}

	// Limits
	if other.Limits.DefaultTimeout != 0 {
		c.Limits.DefaultTimeout = other.Limits.DefaultTimeout
	}
	if other.Limits.DefaultJSWait != 0 {
		c.Limits.DefaultJSWait = other.Limits.DefaultJSWait
	}
	if other.Limits.MaxBytes != 0 {
		c.Limits.MaxBytes = other.Limits.MaxBytes
	}
	if other.Limits.MaxChars != 0 {
		c.Limits.MaxChars = other.Limits.MaxChars
	}
}
