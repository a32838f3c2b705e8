package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{"debug message when level is debug", LevelDebug, func(l Logger, m string) { l.Debug(m) }, true},
		{"debug message when level is info", LevelInfo, func(l Logger, m string) { l.Debug(m) }, false},
		{"info message when level is info", LevelInfo, func(l Logger, m string) { l.Info(m) }, true},
		{"warn message when level is error", LevelError, func(l Logger, m string) { l.Warn(m) }, false},
		{"error message when level is error", LevelError, func(l Logger, m string) { l.Error(m) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(NewLogger(tt.level, buf), "test message")
			assert.Equal(t, tt.expectedInLog, strings.Contains(buf.String(), "test message"))
		})
	}
}

func TestLogger_Format(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(LevelInfo, buf).(*standardLogger)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Warn("Skipping entry", F("module", "fortios_system_status"), F("reason", "no children"))

	assert.Equal(t,
		"2026-01-02 03:04:05 [WARN] ⚠️ Skipping entry | module=fortios_system_status reason=\"no children\"\n",
		buf.String())
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(LevelInfo, buf)

	child := base.WithFields(F("run", "abc"), F("version", "v6.4.0"))
	child.Info("Generated", F("module", "fortios_firewall_policy"))

	for _, field := range []string{"run=abc", "version=v6.4.0", "module=fortios_firewall_policy"} {
		assert.Contains(t, buf.String(), field)
	}

	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "run=abc")
}

func TestLogger_SetLevelAffectsChildren(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(LevelError, buf)
	child := base.WithFields(F("k", "v"))

	child.Info("hidden")
	assert.Empty(t, buf.String())

	base.SetLevel(LevelInfo)
	child.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_SilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(LevelSilent, buf)

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelSilent},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "SILENT", LevelSilent.String())
	assert.Equal(t, "UNKNOWN", Level(999).String())
}
