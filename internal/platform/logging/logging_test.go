package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(format, level string) Config {
	return Config{
		Level:   level,
		Format:  format,
		Service: "quotekeeper",
		Version: "1.0.0",
	}
}

func TestFromContext_Fallbacks(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	assert.NotNil(t, FromContext(nil))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestContextEnrichers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(testConfig("json", "info"), &buf)

	ctx := WithContext(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithSessionID(ctx, "sess-1")

	FromContext(ctx).Info("enriched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(testConfig("json", "info"), &buf)

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "quotekeeper", entry["service_name"])
	assert.Equal(t, "1.0.0", entry["service_version"])
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(testConfig("text", "debug"), &buf)

	logger.Debug("debug message")

	assert.Contains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "service_name=quotekeeper")
}

func TestNewWithWriter_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(testConfig("pretty", "info"), &buf)

	logger.Info("pretty message", slog.String("password", "hunter2"))

	output := buf.String()
	assert.Contains(t, output, "pretty message")
	assert.NotContains(t, output, "hunter2")
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(testConfig("json", "warn"), &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_WithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "quotekeeper.log")

	cfg := testConfig("json", "info")
	cfg.File = FileConfig{
		Enabled:    true,
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}

	logger, closeFn := New(cfg)
	logger.Info("written to file")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer

	handler := NewMultiHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(handler).With(slog.String("component", "test")).WithGroup("g")

	logger.Info("info only", slog.Int("n", 1))
	logger.Error("both")

	assert.Contains(t, infoBuf.String(), "info only")
	assert.Contains(t, infoBuf.String(), "both")
	assert.NotContains(t, errBuf.String(), "info only")
	assert.Contains(t, errBuf.String(), "both")
	assert.Contains(t, infoBuf.String(), `"component":"test"`)
	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewReplaceAttr(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		shouldRedact bool
	}{
		{name: "password", key: "password", value: "secret123", shouldRedact: true},
		{name: "token", key: "token", value: "abc", shouldRedact: true},
		{name: "cookie", key: "cookie", value: "qk_session=1", shouldRedact: true},
		{name: "bearer value", key: "header", value: "Bearer abc.def", shouldRedact: true},
		{name: "quote text", key: "text", value: "Stay hungry.", shouldRedact: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(testConfig("json", "info"), &buf)

			logger.Info("msg", slog.String(tt.key, tt.value))

			if tt.shouldRedact {
				assert.NotContains(t, buf.String(), tt.value)
			} else {
				assert.Contains(t, buf.String(), tt.value)
			}
		})
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(NewRedactingHandler(inner, NewReplaceAttr())).With(slog.String("password", "pre-bound"))

	logger.Info("msg")

	assert.NotContains(t, buf.String(), "pre-bound")
}
