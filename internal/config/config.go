// Package config defines process configuration and how it is loaded.
//
// Canvas credentials are not part of it: they live in the settings store and
// are edited from the UI or the config command.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the web UI listen address. The default binds loopback only.
	Addr string `koanf:"addr"`

	// DBPath is the sqlite file holding saved settings.
	DBPath string `koanf:"db_path"`

	// RequestTimeoutMS bounds each Canvas request. Zero leaves the
	// transport default in place.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Timezone is an IANA zone used to display due dates. Empty means local.
	Timezone string `koanf:"timezone"`
}

// New returns a Config holding the defaults.
func New() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogLevel: "info",
		Addr:     "127.0.0.1:8080",
		DBPath:   filepath.Join(home, ".coursework", "coursework.db"),
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, wrap(ErrInvalidConfig, err)
	}
	return loc, nil
}
