package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "mybot.yaml", `
instance:
  url: https://misskey.example
  access_token: tok123
timelines:
  home: true
  local: true
antennas:
  - News
stream:
  workers: 4
  dedup_ttl: 30m
autopost:
  enabled: true
  interval: 2h
  texts:
    - hello
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mybot", cfg.Name, "name comes from the filename")
	assert.Equal(t, "https://misskey.example", cfg.Instance.URL)
	assert.True(t, cfg.Timelines.Home)
	assert.True(t, cfg.Timelines.Local)
	assert.False(t, cfg.Timelines.Global)
	assert.Equal(t, []string{"News"}, cfg.Antennas)
	assert.Equal(t, 4, cfg.Stream.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Stream.DedupTTL)
	assert.Equal(t, 2*time.Hour, cfg.Autopost.Interval)
	assert.True(t, cfg.IsEnabled())
	assert.True(t, cfg.ShouldReconnect())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "bot.yaml", `
instance:
  url: https://misskey.example
  access_token: tok
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Autopost.Visibility)
	assert.NotZero(t, cfg.Autopost.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MISSKEY_URL", "https://other.example")
	t.Setenv("MISSKEY_ACCESS_TOKEN", "env-token")

	path := writeConfig(t, "bot.yaml", `
instance:
  url: https://misskey.example
  access_token: file-token
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example", cfg.Instance.URL)
	assert.Equal(t, "env-token", cfg.Instance.AccessToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *BotConfig {
		return &BotConfig{
			Instance: InstanceConfig{URL: "https://misskey.example", AccessToken: "tok"},
		}
	}

	require.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.Instance.URL = ""
	assert.ErrorContains(t, Validate(cfg), "instance.url")

	cfg = valid()
	cfg.Instance.URL = "ftp://misskey.example"
	assert.ErrorContains(t, Validate(cfg), "scheme")

	cfg = valid()
	cfg.Instance.AccessToken = ""
	assert.ErrorContains(t, Validate(cfg), "access_token")

	cfg = valid()
	cfg.Autopost.Enabled = true
	assert.ErrorContains(t, Validate(cfg), "texts")

	cfg = valid()
	cfg.Stream.Workers = -1
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Instance.URL = "misskey.example"
	assert.NoError(t, Validate(cfg), "bare hosts default to https")
}

func TestDisabledAndReconnectFlags(t *testing.T) {
	off := false
	cfg := &BotConfig{Enabled: &off}
	assert.False(t, cfg.IsEnabled())

	cfg = &BotConfig{Stream: StreamConfig{Reconnect: &off}}
	assert.False(t, cfg.ShouldReconnect())
}
