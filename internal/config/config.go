// Package config handles loading, parsing, and validating YAML configuration
// files for the bot. Secrets can be overlaid from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oreeke/twipsybot/internal/constants"
)

// DefaultConfigPath is the default bot configuration file.
const DefaultConfigPath = "configs/bot.yaml"

// Load reads a bot configuration from a YAML file, then overlays
// environment variables for secrets.
func Load(path string) (*BotConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg BotConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	filename := filepath.Base(path)
	cfg.Name = strings.TrimSuffix(filename, filepath.Ext(filename))

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *BotConfig) {
	if cfg.Autopost.Interval == 0 {
		cfg.Autopost.Interval = constants.DefaultAutopostInterval
	}
	if cfg.Autopost.Visibility == "" {
		cfg.Autopost.Visibility = "public"
	}
}

// applyEnvOverrides overlays environment variables for secrets.
// MISSKEY_URL and MISSKEY_ACCESS_TOKEN take precedence over YAML values
// so tokens never need to live in the config file.
func applyEnvOverrides(cfg *BotConfig) {
	if v := os.Getenv("MISSKEY_URL"); v != "" {
		cfg.Instance.URL = v
	}
	if v := os.Getenv("MISSKEY_ACCESS_TOKEN"); v != "" {
		cfg.Instance.AccessToken = v
	}
}

// Validate checks the configuration for common errors.
func Validate(cfg *BotConfig) error {
	if cfg.Instance.URL == "" {
		return fmt.Errorf("instance.url is required (or set MISSKEY_URL)")
	}

	raw := cfg.Instance.URL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("instance.url is not a valid URL: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "https", "http":
	default:
		return fmt.Errorf("instance.url has unsupported scheme %q", parsed.Scheme)
	}

	if cfg.Instance.AccessToken == "" {
		return fmt.Errorf("instance.access_token is required (or set MISSKEY_ACCESS_TOKEN)")
	}

	if cfg.Autopost.Enabled && len(cfg.Autopost.Texts) == 0 {
		return fmt.Errorf("autopost enabled but no texts configured")
	}

	if cfg.Stream.Workers < 0 || cfg.Stream.QueueCapacity < 0 {
		return fmt.Errorf("stream.workers and stream.queue_capacity must not be negative")
	}

	return nil
}
