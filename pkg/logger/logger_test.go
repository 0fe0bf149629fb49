package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Component("session").
		WithField("user_id", "u-1").
		WithFields(map[string]interface{}{"generation": 3}).
		WithError(errors.New("fetch failed")).
		Warn("Profile fetch failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Profile fetch failed", entry["message"])
	assert.Equal(t, "session", entry["logger"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, float64(3), entry["generation"])
	assert.Equal(t, "fetch failed", entry["error"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	NewNop().Error("discarded")
}
