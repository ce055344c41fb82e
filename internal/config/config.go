// Package config loads process settings for the babik command from the
// environment.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/reoring/babik/codec"
)

// Config holds CLI settings. Flags override these values.
type Config struct {
	DBPath     string `env:"BABIK_DB_PATH" envDefault:"babik.db"`
	SchemaPath string `env:"BABIK_SCHEMA"`
	LogLevel   string `env:"BABIK_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"BABIK_LOG_FORMAT" envDefault:"console"`
	NumberMode string `env:"BABIK_NUMBER_MODE" envDefault:"json"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Numbers(); err != nil {
		return Config{}, err
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return Config{}, fmt.Errorf("parse env: BABIK_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// Numbers returns the codec number mode.
func (c Config) Numbers() (codec.NumberMode, error) { return codec.ParseNumberMode(c.NumberMode) }

// Logger builds a zerolog logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	if c.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
