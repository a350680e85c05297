package logger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFieldsToMap(t *testing.T) {
	fields := []zapcore.Field{
		zap.String("ad_id", "a-1"),
		zap.Int64("impressions", 42),
		zap.Float64("ctr", 2.5),
		zap.Bool("active", true),
		zap.Duration("elapsed", 1500*time.Millisecond),
		zap.Error(errors.New("boom")),
	}

	m := fieldsToMap(fields)

	assert.Equal(t, "a-1", m["ad_id"])
	assert.Equal(t, int64(42), m["impressions"])
	assert.Equal(t, 2.5, m["ctr"])
	assert.Equal(t, true, m["active"])
	assert.Equal(t, "1.5s", m["elapsed"])
	assert.Equal(t, "boom", m["error"])
}

func TestZapLevelToSentry(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected sentry.Level
	}{
		{zapcore.DebugLevel, sentry.LevelDebug},
		{zapcore.InfoLevel, sentry.LevelInfo},
		{zapcore.WarnLevel, sentry.LevelWarning},
		{zapcore.ErrorLevel, sentry.LevelError},
		{zapcore.FatalLevel, sentry.LevelFatal},
	}

	for _, tt := range tests {
		if got := zapLevelToSentry(tt.level); got != tt.expected {
			t.Errorf("zapLevelToSentry(%v) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", Output: path, Service: "ad-placement-service"}, SentryConfig{})
	require.NoError(t, err)

	log.Component("tracking").Info("tracking workers started")
	require.NoError(t, log.Sync())

	assert.FileExists(t, path)
}

func TestSentryCore_OnlyErrors(t *testing.T) {
	core := newSentryCore(zapcore.DebugLevel)

	info := core.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil)
	assert.Nil(t, info)

	withFields := core.With([]zapcore.Field{zap.String("ad_id", "a-1")}).(*sentryCore)
	assert.Len(t, withFields.fields, 1)
	assert.Empty(t, core.fields, "parent core is not mutated")
}
