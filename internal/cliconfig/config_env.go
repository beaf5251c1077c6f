package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SVCLIFE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", os.Getenv("SVCLIFE_ENDPOINT"), &cfg.Endpoint)
	s.setString("auth-token", os.Getenv("SVCLIFE_AUTH_TOKEN"), &cfg.AuthToken)
	s.setString("drain-file", os.Getenv("SVCLIFE_DRAIN_FILE"), &cfg.DrainFile)
	s.setString("log-level", os.Getenv("SVCLIFE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("dial-timeout", os.Getenv("SVCLIFE_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-base", os.Getenv("SVCLIFE_RECONNECT_BASE"), &cfg.ReconnectBase); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-max", os.Getenv("SVCLIFE_RECONNECT_MAX"), &cfg.ReconnectMax); err != nil {
		return err
	}
	if err := s.setIntFromString("reconnect-max-attempts", os.Getenv("SVCLIFE_RECONNECT_MAX_ATTEMPTS"), &cfg.ReconnectMaxAttempts); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("SVCLIFE_ONCE"), &cfg.Once)

	return nil
}
