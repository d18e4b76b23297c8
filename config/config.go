// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads geoscope settings from a TOML file over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all user-facing configuration.
type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Gazetteer GazetteerConfig `toml:"gazetteer"`
	Resolver  ResolverConfig  `toml:"resolver"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// EngineConfig selects the reasoning engine. API keys are read from the
// environment, never from the file.
type EngineConfig struct {
	Provider    string   `toml:"provider"` // anthropic, openai
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature float64  `toml:"temperature"`
	Timeout     Duration `toml:"timeout"`
}

// GazetteerConfig selects the place lookup service.
type GazetteerConfig struct {
	Provider  string   `toml:"provider"` // photon, google
	Endpoint  string   `toml:"endpoint"`
	Limit     int      `toml:"limit"`
	Language  string   `toml:"language"`
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

type ResolverConfig struct {
	StrictScale bool `toml:"strict_scale"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LogConfig struct {
	Mode          string `toml:"mode"` // dev, prod
	HTTPTrace     bool   `toml:"http_trace"`
	HTTPBodyTrace bool   `toml:"http_body_trace"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}

	d.Duration = v

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
			Timeout:   Duration{2 * time.Minute},
		},
		Gazetteer: GazetteerConfig{
			Provider: "photon",
			Endpoint: "https://photon.komoot.io/api",
			Limit:    5,
			Timeout:  Duration{30 * time.Second},
		},
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Log:    LogConfig{Mode: "dev"},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Engine.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown engine provider %q", c.Engine.Provider)
	}

	switch c.Gazetteer.Provider {
	case "photon", "google":
	default:
		return fmt.Errorf("unknown gazetteer provider %q", c.Gazetteer.Provider)
	}

	if c.Gazetteer.Limit <= 0 {
		return fmt.Errorf("gazetteer limit must be positive, got %d", c.Gazetteer.Limit)
	}

	if c.Engine.MaxTokens <= 0 {
		return fmt.Errorf("engine max_tokens must be positive, got %d", c.Engine.MaxTokens)
	}

	return nil
}

// Addr is the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
