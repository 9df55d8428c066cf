package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture points the package logger at a buffer for one test.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	var buf bytes.Buffer
	prev := log
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	t.Cleanup(func() { log = prev })
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, log)
}

func TestLevelsWithKeyValues(t *testing.T) {
	tests := []struct {
		name  string
		log   func(msg string, args ...any)
		level string
	}{
		{"info", Info, "INFO"},
		{"warn", Warn, "WARN"},
		{"error", Error, "ERROR"},
		{"debug", Debug, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, slog.LevelDebug)

			tt.log("invoice paid", "invoice_id", 41, "gym_id", 9, "method", "momo")

			entry := decode(t, buf)
			assert.Equal(t, "invoice paid", entry["msg"])
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, float64(41), entry["invoice_id"])
			assert.Equal(t, float64(9), entry["gym_id"])
			assert.Equal(t, "momo", entry["method"])
		})
	}
}

func TestFormatted(t *testing.T) {
	tests := []struct {
		name  string
		log   func(format string, v ...any)
		level string
	}{
		{"infof", Infof, "INFO"},
		{"errorf", Errorf, "ERROR"},
		{"debugf", Debugf, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, slog.LevelDebug)

			tt.log("gym %d approved by %s", 9, "admin")

			entry := decode(t, buf)
			assert.Equal(t, "gym 9 approved by admin", entry["msg"])
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestWithError(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	WithError(assert.AnError).Error("send email failed", "to", "owner@gym.io")

	entry := decode(t, buf)
	assert.Equal(t, "send email failed", entry["msg"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Equal(t, "owner@gym.io", entry["to"])
}

func TestWithFields(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	WithFields(map[string]any{"gym_id": 9, "plan": "pro"}).Info("gym registered")

	entry := decode(t, buf)
	assert.Equal(t, "gym registered", entry["msg"])
	assert.Equal(t, float64(9), entry["gym_id"])
	assert.Equal(t, "pro", entry["plan"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Debug("hidden", "member_id", 1)
	Debugf("hidden %d", 2)

	assert.Empty(t, buf.String())
}
