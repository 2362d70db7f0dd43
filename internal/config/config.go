// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config holds the configuration of the sqlstmt command.
// Configuration comes from an optional YAML file. Environment variables
// always override the file.
package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the configuration of the sqlstmt command.
type Config struct {
	// Quote is the character quoting string literals written into
	// statements.
	Quote string `yaml:"quote" env:"SQLSTMT_QUOTE" env-default:"'"`
	// InjectionCheck rejects inlined values that look like SQL injection.
	InjectionCheck bool `yaml:"injection_check" env:"SQLSTMT_INJECTION_CHECK" env-default:"false"`
	// Pretty prints one clause per line.
	Pretty bool `yaml:"pretty" env:"SQLSTMT_PRETTY" env-default:"false"`
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level" env:"SQLSTMT_LOG_LEVEL" env-default:"warn"`
}

// Load reads the configuration from the YAML file at path with environment
// variable overrides. With an empty path only the environment is read.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("cannot read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if utf8.RuneCountInString(c.Quote) != 1 {
		return fmt.Errorf("quote must be a single character, got %q", c.Quote)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// QuoteRune returns the quote character.
func (c *Config) QuoteRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Quote)
	return r
}

// Logger builds a development logger writing to standard error at the
// configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)
	return logConfig.Build()
}
