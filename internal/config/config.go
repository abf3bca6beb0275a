// Package config handles loading, parsing, and validating the YAML
// configuration file. Credentials never live in the file; they are overlaid
// from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default endpoints. Overridable from the file, mostly for tests.
const (
	DefaultChatURL   = "wss://irc-ws.chat.twitch.tv"
	DefaultEventsURL = "wss://eventsub.wss.twitch.tv/ws"
)

// Config is the monitor configuration for one channel.
type Config struct {
	Channel string `yaml:"channel"`
	Theme   string `yaml:"theme"`

	Chat struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"chat"`

	Events struct {
		URL string `yaml:"url"`
	} `yaml:"events"`

	API struct {
		URL string `yaml:"url"`
	} `yaml:"api"`

	Log struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"log"`

	// Credentials, environment only.
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	AccessToken  string `yaml:"-"`
	RefreshToken string `yaml:"-"`
}

// Load reads a configuration file, then overlays credential environment
// variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Theme == "" {
		cfg.Theme = "dark"
	}
	if cfg.Chat.URL == "" {
		cfg.Chat.URL = DefaultChatURL
	}
	if cfg.Events.URL == "" {
		cfg.Events.URL = DefaultEventsURL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
}

// applyEnvOverrides overlays the credential environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWITCH_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("TWITCH_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
	}
	if v := os.Getenv("TWITCH_ACCESS_TOKEN"); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv("TWITCH_REFRESH_TOKEN"); v != "" {
		cfg.RefreshToken = v
	}
}

// Validate checks the configuration for common errors.
func Validate(cfg *Config) error {
	if cfg.Channel == "" {
		return fmt.Errorf("channel is required")
	}
	if cfg.Theme != "dark" && cfg.Theme != "light" {
		return fmt.Errorf("theme must be dark or light, got %q", cfg.Theme)
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("client id not set (use env var TWITCH_CLIENT_ID)")
	}
	if cfg.AccessToken == "" || cfg.RefreshToken == "" {
		return fmt.Errorf("channel %s: tokens not set (use env vars TWITCH_ACCESS_TOKEN and TWITCH_REFRESH_TOKEN)", cfg.Channel)
	}
	if !strings.HasPrefix(cfg.Events.URL, "ws") {
		return fmt.Errorf("events url must be a websocket endpoint, got %q", cfg.Events.URL)
	}
	return nil
}
