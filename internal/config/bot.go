package config

import (
	"time"
)

// BotConfig represents the full configuration for a single bot instance.
// It is loaded from a YAML file and optionally overlaid with environment
// variables for secrets.
type BotConfig struct {
	// Name is derived from the config filename, not the YAML body.
	Name string `yaml:"-"`

	Enabled *bool `yaml:"enabled,omitempty"`

	Instance InstanceConfig `yaml:"instance"`

	Timelines TimelinesConfig `yaml:"timelines"`

	// Antennas selects antennas to stream, by id or by display name.
	Antennas []string `yaml:"antennas"`

	Stream StreamConfig `yaml:"stream"`

	Autopost AutopostConfig `yaml:"autopost"`

	LogDumpEvents bool `yaml:"log_dump_events"`
}

// InstanceConfig holds the Misskey instance endpoint and credentials.
type InstanceConfig struct {
	URL         string `yaml:"url"`
	AccessToken string `yaml:"access_token"`
}

// TimelinesConfig toggles the timeline channels subscribed at startup.
// The main channel is always subscribed regardless of these flags.
type TimelinesConfig struct {
	Home   bool `yaml:"home"`
	Local  bool `yaml:"local"`
	Hybrid bool `yaml:"hybrid"`
	Global bool `yaml:"global"`
}

// StreamConfig tunes the streaming engine. Zero values fall back to the
// package defaults at client construction.
type StreamConfig struct {
	Workers        int           `yaml:"workers"`
	QueueCapacity  int           `yaml:"queue_capacity"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
	DedupCapacity  int           `yaml:"dedup_capacity"`
	DedupTTL       time.Duration `yaml:"dedup_ttl"`
	ChatInactivity time.Duration `yaml:"chat_inactivity"`
	Reconnect      *bool         `yaml:"reconnect,omitempty"`
}

// AutopostConfig holds settings for the scheduled posting loop.
type AutopostConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	MaxJitter  time.Duration `yaml:"max_jitter"`
	Visibility string        `yaml:"visibility"`
	// Texts is the rotation of note bodies to post.
	Texts []string `yaml:"texts"`
}

// IsEnabled reports whether this bot should run. Unset means enabled.
func (c *BotConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ShouldReconnect reports whether the streaming client reconnects after a
// dropped connection. Unset means reconnect.
func (c *BotConfig) ShouldReconnect() bool {
	return c.Stream.Reconnect == nil || *c.Stream.Reconnect
}
