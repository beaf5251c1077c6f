package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Endpoint             string `toml:"endpoint"`
	AuthToken            string `toml:"auth_token"`
	DialTimeout          string `toml:"dial_timeout"`
	DrainFile            string `toml:"drain_file"`
	ReconnectBase        string `toml:"reconnect_base"`
	ReconnectMax         string `toml:"reconnect_max"`
	ReconnectMaxAttempts int    `toml:"reconnect_max_attempts"`
	LogLevel             string `toml:"log_level"`
	Once                 *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.svclife/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".svclife", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)
	s.setString("drain-file", fc.DrainFile, &cfg.DrainFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-base", fc.ReconnectBase, &cfg.ReconnectBase); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-max", fc.ReconnectMax, &cfg.ReconnectMax); err != nil {
		return err
	}

	s.setInt("reconnect-max-attempts", fc.ReconnectMaxAttempts, &cfg.ReconnectMaxAttempts)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
