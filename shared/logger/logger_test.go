package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, output *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel string
	}{
		{level: "debug", wantLevel: "DEBUG"},
		{level: "info", wantLevel: "INFO"},
		{level: "warn", wantLevel: "WARN"},
		{level: "error", wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			output := &bytes.Buffer{}
			logger, err := New(&Config{Level: tt.level, Format: "json", writer: output})
			require.NoError(t, err)

			logger.Debug("job listed", slog.String("job_id", "j1"))
			logger.Info("job claimed", slog.String("job_id", "j1"))
			logger.Warn("claim conflict", slog.String("job_id", "j1"))
			logger.Error("store failure", slog.String("job_id", "j1"))

			entries := decodeLines(t, output)
			require.NotEmpty(t, entries)
			assert.Equal(t, tt.wantLevel, entries[0]["level"])
			assert.Equal(t, "j1", entries[0]["job_id"])
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{Level: "info", Format: "console", TimeFormat: time.RFC3339, writer: output})
	require.NoError(t, err)

	logger.Info("listener subscribed")

	// tint abbreviates levels
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "listener subscribed")
}

func TestNew_SourceLocation(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{Level: "info", Format: "json", EnableSource: true, writer: output})
	require.NoError(t, err)

	logger.Info("with source")

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	source, ok := entries[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, source, "file")
	assert.Contains(t, source, "line")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")

	logger, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("written to file", slog.Int("jobs", 3))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNew_FileOutputUnwritable(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "api.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	// case-sensitive; unknown falls back to info
	assert.Equal(t, slog.LevelInfo, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestLogger_WithHelpers(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{Level: "info", Format: "json", writer: output})
	require.NoError(t, err)

	logger.WithGroup("realtime").
		WithAttrs(slog.String("user_id", "u1")).
		With("subscription", "realtime:public:jobs:notifications:u1").
		Info("subscribed")

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	group, ok := entries[0]["realtime"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", group["user_id"])
	assert.Equal(t, "realtime:public:jobs:notifications:u1", group["subscription"])
}

func TestNewDefaultAndNop(t *testing.T) {
	require.NotNil(t, NewDefault().Logger)
	require.NotNil(t, NewNop())
}
