package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DialTimeout != 10*time.Second {
		t.Errorf("DialTimeout = %v, want 10s", cfg.DialTimeout)
	}
	if cfg.ReconnectBase != 500*time.Millisecond {
		t.Errorf("ReconnectBase = %v, want 500ms", cfg.ReconnectBase)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Once {
		t.Error("Once = true by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Endpoint = "db.internal:5432"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"valid local", func(c *Config) { c.Endpoint = "" }, false},
		{"token without endpoint", func(c *Config) { c.Endpoint = ""; c.AuthToken = "x" }, true},
		{"zero dial timeout", func(c *Config) { c.DialTimeout = 0 }, true},
		{"zero reconnect base", func(c *Config) { c.ReconnectBase = 0 }, true},
		{"max below base", func(c *Config) { c.ReconnectMax = c.ReconnectBase / 2 }, true},
		{"negative max attempts", func(c *Config) { c.ReconnectMaxAttempts = -1 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"bogus", "info"},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in).String(); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
