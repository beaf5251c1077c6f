package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds CLI configuration for the svclife demo agent.
type Config struct {
	// Endpoint is the host:port to connect to. Its presence makes the
	// service public; combined with AuthToken it becomes private.
	Endpoint string

	// AuthToken authenticates the connection after it is established.
	AuthToken string

	DialTimeout time.Duration

	// DrainFile, when set, enables the drain watcher.
	DrainFile string

	ReconnectBase        time.Duration
	ReconnectMax         time.Duration
	ReconnectMaxAttempts int

	LogLevel string

	// Once drives the service to Ready a single time and exits instead of
	// supervising it.
	Once bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DialTimeout:   10 * time.Second,
		ReconnectBase: 500 * time.Millisecond,
		ReconnectMax:  30 * time.Second,
		LogLevel:      "info",
		AuthToken:     os.Getenv("SVCLIFE_AUTH_TOKEN"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.AuthToken != "" && c.Endpoint == "" {
		return fmt.Errorf("auth-token requires an endpoint")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.ReconnectBase <= 0 {
		return fmt.Errorf("reconnect base must be positive")
	}
	if c.ReconnectMax < c.ReconnectBase {
		return fmt.Errorf("reconnect max must be at least reconnect base")
	}
	if c.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("reconnect max attempts must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
