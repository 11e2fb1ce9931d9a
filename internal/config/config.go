// Package config loads process-level defaults from MOLNORM_*
// environment variables.
//
// Every value here has a flag counterpart on the CLI and flags win.
// The environment exists so an operator can pin a journal path or a
// custom catalog once instead of repeating flags per invocation.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/pmachta/molnorm/internal/normalize"
)

// Config holds environment-sourced defaults for the CLI.
type Config struct {
	// DBPath is the journal database path. Empty leaves journaling off
	// unless --db supplies a path.
	DBPath string `env:"MOLNORM_DB"`

	// RulesPath points at a CUE rule catalog replacing the built-in
	// one. Empty keeps the built-in catalog.
	RulesPath string `env:"MOLNORM_RULES"`

	// MaxRestarts is the engine restart budget. Zero or negative falls
	// back to the engine default.
	MaxRestarts int `env:"MOLNORM_MAX_RESTARTS"`
}

// FromEnv loads configuration from the environment and applies
// defaults for unset values.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = normalize.DefaultMaxRestarts
	}
	return cfg, nil
}
