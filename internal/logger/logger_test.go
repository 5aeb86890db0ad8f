package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "dorkbot.log")

	log, err := New(Config{
		LogFile:   logFile,
		LogFormat: "json",
		LogLevel:  "debug",
	})
	require.NoError(t, err)

	log.Info().Str("key", "value").Msg("hello")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "dorkbot.log")

	log, err := New(Config{
		LogFile:   logFile,
		LogFormat: "json",
		LogLevel:  "warn",
	})
	require.NoError(t, err)

	log.Debug().Msg("dropped")
	log.Info().Msg("dropped too")
	log.Warn().Msg("kept")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "dropped")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{LogLevel: "verbose"})
	assert.Error(t, err)
}

func TestNew_EmptyLevelDefaultsToInfo(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, parseFormat("json"))
	assert.Equal(t, FormatJSON, parseFormat("JSON"))
	assert.Equal(t, FormatText, parseFormat("text"))
	assert.Equal(t, FormatConsole, parseFormat("console"))
	assert.Equal(t, FormatConsole, parseFormat(""))
	assert.Equal(t, FormatConsole, parseFormat("whatever"))
}
