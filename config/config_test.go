package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("expected default addr :8000, got %s", cfg.Server.Addr)
	}
	if cfg.Browser.Locale != "ja-JP" {
		t.Errorf("expected default locale ja-JP, got %s", cfg.Browser.Locale)
	}
	if cfg.Browser.Timezone != "Asia/Tokyo" {
		t.Errorf("expected default timezone Asia/Tokyo, got %s", cfg.Browser.Timezone)
	}
	if cfg.Limits.MaxBytes != 2_000_000 {
		t.Errorf("expected default max bytes 2000000, got %d", cfg.Limits.MaxBytes)
	}
	if cfg.Limits.MaxChars != 1_000_000 {
		t.Errorf("expected default max chars 1000000, got %d", cfg.Limits.MaxChars)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "missing server addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
		},
		{
			name:    "nats url without subject",
			modify:  func(c *Config) { c.NATS.URL = "nats://localhost:4222"; c.NATS.Subject = "" },
			wantErr: true,
		},
		{
			name:    "timeout below range",
			modify:  func(c *Config) { c.Limits.DefaultTimeout = 500 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "timeout above range",
			modify:  func(c *Config) { c.Limits.DefaultTimeout = 601 * time.Second },
			wantErr: true,
		},
		{
			name:    "js wait above range",
			modify:  func(c *Config) { c.Limits.DefaultJSWait = 61 * time.Second },
			wantErr: true,
		},
		{
			name:    "max bytes below range",
			modify:  func(c *Config) { c.Limits.MaxBytes = 9_999 },
			wantErr: true,
		},
		{
			name:    "max bytes above range",
			modify:  func(c *Config) { c.Limits.MaxBytes = 50_000_001 },
			wantErr: true,
		},
		{
			name:    "max chars below range",
			modify:  func(c *Config) { c.Limits.MaxChars = 9_999 },
			wantErr: true,
		},
		{
			name:    "zero viewport",
			modify:  func(c *Config) { c.Browser.ViewportWidth = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := LogConfig{Level: tt.level}.SlogLevel()
		if got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
log:
  level: debug
server:
  addr: ":9000"
  read_timeout: 1m
nats:
  url: "nats://test:4222"
  subject: "content.get"
safety:
  blocked_hosts:
    - "*.internal.example.com"
  blocklist_file: "/etc/pagefetch/blocklist"
browser:
  locale: "en-US"
  timezone: "UTC"
limits:
  default_timeout: 45s
  max_bytes: 5000000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != time.Minute {
		t.Errorf("expected read timeout 1m, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if len(cfg.Safety.BlockedHosts) != 1 {
		t.Errorf("expected 1 blocked host pattern, got %d", len(cfg.Safety.BlockedHosts))
	}
	if cfg.Browser.Locale != "en-US" {
		t.Errorf("expected locale en-US, got %s", cfg.Browser.Locale)
	}
	if cfg.Limits.DefaultTimeout != 45*time.Second {
		t.Errorf("expected default timeout 45s, got %v", cfg.Limits.DefaultTimeout)
	}
	if cfg.Limits.MaxBytes != 5_000_000 {
		t.Errorf("expected max bytes 5000000, got %d", cfg.Limits.MaxBytes)
	}
	// Unset fields keep their defaults
	if cfg.Limits.MaxChars != 1_000_000 {
		t.Errorf("expected max chars to remain default, got %d", cfg.Limits.MaxChars)
	}
	if cfg.Browser.ViewportWidth != 1280 {
		t.Errorf("expected viewport width to remain default, got %d", cfg.Browser.ViewportWidth)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Log: LogConfig{
			Level: "debug",
		},
		Safety: SafetyConfig{
			BlockedHosts: []string{"*.corp.example.com"},
		},
		Limits: LimitsConfig{
			MaxChars: 50_000,
		},
	}

	base.Merge(override)

	if base.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", base.Log.Level)
	}
	if base.Limits.MaxChars != 50_000 {
		t.Errorf("expected max chars 50000, got %d", base.Limits.MaxChars)
	}
	if len(base.Safety.BlockedHosts) != 1 {
		t.Errorf("expected 1 blocked host pattern, got %d", len(base.Safety.BlockedHosts))
	}
	// Addr should remain from base since override didn't set it
	if base.Server.Addr != ":8000" {
		t.Errorf("expected addr to remain default, got %s", base.Server.Addr)
	}
	if base.Limits.MaxBytes != 2_000_000 {
		t.Errorf("expected max bytes to remain default, got %d", base.Limits.MaxBytes)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":8080"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", loaded.Server.Addr)
	}
}
