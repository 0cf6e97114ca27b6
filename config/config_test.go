package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 5, cfg.BoardRows)
	assert.Equal(t, 5, cfg.BoardCols)
	assert.Equal(t, 3, cfg.InitialLives)
	assert.Equal(t, 24, cfg.MaxNameLength)
	assert.Equal(t, 8080, cfg.WSPort)
	assert.Equal(t, 10, cfg.LeaderboardSize)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BOARD_ROWS", "6")
	t.Setenv("BOARD_COLS", "7")
	t.Setenv("INITIAL_LIVES", "5")
	t.Setenv("WS_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/tetrecs")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, 6, cfg.BoardRows)
	assert.Equal(t, 7, cfg.BoardCols)
	assert.Equal(t, 5, cfg.InitialLives)
	assert.Equal(t, 9090, cfg.WSPort)
	assert.Equal(t, "postgres://localhost/tetrecs", cfg.DatabaseURL)
	// Non-overridden fields keep their defaults.
	assert.Equal(t, 10, cfg.LeaderboardSize)
}

func TestLoadWithInvalidEnv(t *testing.T) {
	t.Setenv("BOARD_ROWS", "invalid")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, 5, cfg.BoardRows)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"board_rows": 8, "initial_lives": 0, "bot": {"name": "Robo", "delay_min_ms": 300, "delay_max_ms": 100}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg := LoadFile(path)

	assert.Equal(t, 8, cfg.BoardRows)
	assert.Equal(t, 5, cfg.BoardCols)
	assert.Equal(t, 3, cfg.InitialLives, "non-positive lives fall back to the default")
	assert.Equal(t, "Robo", cfg.Bot.Name)
	assert.Equal(t, 300, cfg.Bot.DelayMaxMS, "max delay is raised to the min")
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.expected, cfg.SlogLevel(), tt.level)
	}
}
