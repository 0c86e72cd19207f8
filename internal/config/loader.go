package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "COURSEWORK_"
	envFileVar = "COURSEWORK_CONFIG"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. the YAML file named by COURSEWORK_CONFIG, if set
//  3. COURSEWORK_* environment variables
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrap(ErrLoadConfig, err)
		}
	}

	// COURSEWORK_DB_PATH -> db_path. Underscores are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrap(ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrap(ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return wrap(ErrInvalidConfig, errors.New("addr must not be empty"))
	case strings.TrimSpace(c.DBPath) == "":
		return wrap(ErrInvalidConfig, errors.New("db_path must not be empty"))
	case c.RequestTimeoutMS < 0:
		return wrap(ErrInvalidConfig, errors.New("request_timeout_ms must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
