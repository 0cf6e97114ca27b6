package loghandler

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var timestamp = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} `)

func TestHandle_TagAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Info("lines cleared", "tag", "game", "lines", 2, "blocks", 9)

	line := buf.String()
	assert.Regexp(t, timestamp, line)
	assert.True(t, strings.HasSuffix(line, "[game] lines cleared lines=2 blocks=9\n"), "got %q", line)
	assert.NotContains(t, line, "tag=")
	assert.NotContains(t, line, "INFO")
}

func TestHandle_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Warn("careful", "tag", "config")
	assert.Contains(t, buf.String(), "WARN [config] careful")
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelDebug)).With("tag", "game", "session", "abc")

	log.Info("timer expired", "lives", 2)

	assert.Contains(t, buf.String(), "[game] timer expired session=abc lives=2\n")
}

func TestWithAttrs_RecordTagWins(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).With("tag", "game")

	log.Info("saved", "tag", "storage")

	assert.Contains(t, buf.String(), "[storage] saved\n")
}

func TestWithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).WithGroup("ws")

	log.Info("connected", "clients", 3)

	assert.Contains(t, buf.String(), "connected ws.clients=3\n")
}
