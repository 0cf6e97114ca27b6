package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
)

// BotParams holds the parameters for the autoplay bot.
type BotParams struct {
	Name       string `json:"name"`
	DelayMinMS int    `json:"delay_min_ms"`
	DelayMaxMS int    `json:"delay_max_ms"`
}

// Config holds all configurable game and server parameters.
type Config struct {
	BoardRows    int `json:"board_rows"`
	BoardCols    int `json:"board_cols"`
	InitialLives int `json:"initial_lives"`

	MaxNameLength   int    `json:"max_name_length"`
	WSPort          int    `json:"ws_port"`
	LeaderboardSize int    `json:"leaderboard_size"`
	ScoresFile      string `json:"scores_file"`
	LogLevel        string `json:"log_level"`

	// DatabaseURL selects the Postgres leaderboard; empty falls back to ScoresFile.
	DatabaseURL string `json:"database_url"`

	// AuthBaseURL enables JWT identity for players; empty disables it.
	AuthBaseURL string `json:"auth_base_url"`

	Bot BotParams `json:"bot"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		BoardRows:       5,
		BoardCols:       5,
		InitialLives:    3,
		MaxNameLength:   24,
		WSPort:          8080,
		LeaderboardSize: 10,
		ScoresFile:      "scores.txt",
		LogLevel:        "info",
		Bot:             BotParams{Name: "Autopilot", DelayMinMS: 400, DelayMaxMS: 1200},
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	overrideInt(&cfg.BoardRows, "BOARD_ROWS")
	overrideInt(&cfg.BoardCols, "BOARD_COLS")
	overrideInt(&cfg.InitialLives, "INITIAL_LIVES")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.LeaderboardSize, "LEADERBOARD_SIZE")
	overrideString(&cfg.ScoresFile, "SCORES_FILE")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")
	overrideString(&cfg.Bot.Name, "BOT_NAME")
	overrideInt(&cfg.Bot.DelayMinMS, "BOT_DELAY_MIN_MS")
	overrideInt(&cfg.Bot.DelayMaxMS, "BOT_DELAY_MAX_MS")

	cfg.sanitize()
	return cfg
}

// sanitize replaces values that would break a session with their defaults.
func (c *Config) sanitize() {
	d := Defaults()
	if c.BoardRows <= 0 {
		slog.Warn("board_rows must be positive; using default", "tag", "config", "value", c.BoardRows)
		c.BoardRows = d.BoardRows
	}
	if c.BoardCols <= 0 {
		slog.Warn("board_cols must be positive; using default", "tag", "config", "value", c.BoardCols)
		c.BoardCols = d.BoardCols
	}
	if c.InitialLives <= 0 {
		slog.Warn("initial_lives must be positive; using default", "tag", "config", "value", c.InitialLives)
		c.InitialLives = d.InitialLives
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = d.LeaderboardSize
	}
	if c.Bot.DelayMaxMS < c.Bot.DelayMinMS {
		c.Bot.DelayMaxMS = c.Bot.DelayMinMS
	}
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid environment value", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
