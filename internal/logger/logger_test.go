package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestSetupWithLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := Setup(Config{Level: slog.LevelInfo, LogDir: dir, Name: "testbot"})
	require.NoError(t, err)

	log.Info("hello", "channel", "main")

	data, err := os.ReadFile(filepath.Join(dir, "testbot.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "channel=main")
}

func TestWithName(t *testing.T) {
	log, err := Setup(Config{Level: slog.LevelError})
	require.NoError(t, err)
	named := log.WithName("sub")
	require.NotNil(t, named)
	assert.NotSame(t, log, named)
}
