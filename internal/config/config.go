// Package config provides configuration loading for the SPC42-MQTT bridge.
// It decodes the YAML schema documented in the project specification and
// validates it before the watchdog and MQTT loops start.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SPC holds the alarm-panel connection parameters.
type SPC struct {
	Host                string `yaml:"host"`
	User                string `yaml:"user"`
	PIN                 string `yaml:"pin"`
	Language            int    `yaml:"language"`
	SessionCacheDir     string `yaml:"session_cache_dir"`
	MinLoginIntervalSec int    `yaml:"min_login_interval_sec"`
}

// MQTT holds the broker connection and publication parameters.
type MQTT struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	BaseTopic string `yaml:"base_topic"`
	ClientID  string `yaml:"client_id"`
	QoS       byte   `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
}

// CategoryFlags is the per-category boolean matrix used for both the
// `information` and `controle` gates (spec.md §4.I).
type CategoryFlags struct {
	Zones    bool `yaml:"zones"`
	Secteurs bool `yaml:"secteurs"`
	Doors    bool `yaml:"doors"`
	Outputs  bool `yaml:"outputs"`
}

// Watchdog holds the polling intervals and feature-flag matrices.
type Watchdog struct {
	RefreshInterval           float64       `yaml:"refresh_interval"`
	ControllerRefreshInterval float64       `yaml:"controller_refresh_interval"`
	LogChanges                bool          `yaml:"log_changes"`
	Information               CategoryFlags `yaml:"information"`
	Controle                  CategoryFlags `yaml:"controle"`
}

// Config is the top-level configuration document, decoded once at startup
// and shared read-only across every goroutine for the lifetime of the
// process (spec.md §4.I: "immutable for the process lifetime").
type Config struct {
	SPC      SPC      `yaml:"spc"`
	MQTT     MQTT     `yaml:"mqtt"`
	Watchdog Watchdog `yaml:"watchdog"`
}

// Load reads a YAML file at filename and decodes it into a *Config.
// Unknown fields are rejected so a typo in the config file surfaces as a
// startup error rather than a silently-ignored setting (config-invalid is
// the only fatal error kind per spec.md §7).
func Load(filename string) (*Config, error) {
	f, err := os.Open(filename) // #nosec G304 -- filename is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %q: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks the fields spec.md §6 declares required and range-bound.
// A config that fails validation is a config-invalid error (spec.md §7):
// fatal, before the main loop starts.
func (c *Config) Validate() error {
	if c.SPC.Host == "" {
		return fmt.Errorf("spc.host must not be empty")
	}
	if c.SPC.User == "" {
		return fmt.Errorf("spc.user must not be empty")
	}
	if c.SPC.SessionCacheDir == "" {
		return fmt.Errorf("spc.session_cache_dir must not be empty")
	}
	if c.SPC.MinLoginIntervalSec <= 0 {
		return fmt.Errorf("spc.min_login_interval_sec must be positive")
	}
	if c.MQTT.Host == "" {
		return fmt.Errorf("mqtt.host must not be empty")
	}
	if c.MQTT.Port <= 0 {
		return fmt.Errorf("mqtt.port must be positive")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if c.Watchdog.RefreshInterval < 0.2 {
		return fmt.Errorf("watchdog.refresh_interval must be >= 0.2 seconds")
	}
	if c.Watchdog.ControllerRefreshInterval <= 0 {
		return fmt.Errorf("watchdog.controller_refresh_interval must be positive")
	}
	return nil
}
