package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: level, Format: format, Writer: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestLoggerRedactsCredentials(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel, "text")

	logger.Info("login", "token", "eyJhbGciOi", "password", "hunter2", "Authorization", "Bearer abc", "username", "mor_2314")

	out := buf.String()
	assert.NotContains(t, out, "eyJhbGciOi")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "Bearer abc")
	assert.Contains(t, out, "mor_2314")
	assert.Contains(t, out, "[REDACTED]")
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel, "json")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestLoggerComponentAndFields(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel, "json")

	logger.WithComponent("api").WithFields(map[string]interface{}{"endpoint": "/products"}).Info("request")

	out := buf.String()
	assert.Contains(t, out, `"component":"api"`)
	assert.Contains(t, out, `"endpoint":"/products"`)
}

func TestLoggerWithContextRequestID(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel, "json")

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}

func TestLogOperationReturnsError(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel, "text")

	want := errors.New("boom")
	got := logger.LogOperation("products.load", func() error { return want })

	assert.ErrorIs(t, got, want)
	assert.Contains(t, buf.String(), "Operation failed")
}

func TestPrettyFormatWrites(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel, "pretty")
	logger.Info("colored", "password", "secret-value")

	assert.Contains(t, buf.String(), "colored")
	assert.NotContains(t, buf.String(), "secret-value")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
}
