package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, levelFromString(in), "level %q", in)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.Debug("hidden")
	logger.With("component", "test").Info("ingestion cycle complete", "added", 3)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "ingestion cycle complete", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.EqualValues(t, 3, entry["added"])
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "console")

	logger.Debug("fetch source", "source", "DEV.to")

	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "fetch source")
	assert.Contains(t, buf.String(), "DEV.to")
}
