// Package logging provides structured logging using Go's slog package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is more verbose than debug and covers wire-level detail
// such as outbound request bookkeeping.
const LevelTrace = slog.Level(-8)

// Config holds logging configuration.
type Config struct {
	Level   string // trace, debug, info, warn, error
	Format  string // json, text, pretty
	Service string // service name for default attrs
	Version string // service version for default attrs
	File    FileConfig
}

// FileConfig enables an additional rolling JSON log file.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a configured slog.Logger writing to stdout and, when enabled,
// to a rolling file. The returned close func releases the file handle.
func New(cfg Config) (*slog.Logger, func() error) {
	console := newConsoleHandler(cfg, os.Stdout)

	if !cfg.File.Enabled || cfg.File.Path == "" {
		return withDefaults(slog.New(console), cfg), func() error { return nil }
	}

	roller := &lumberjack.Logger{
		Filename:   cfg.File.Path,
		MaxSize:    cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAgeDays,
		Compress:   cfg.File.Compress,
	}

	file := slog.NewJSONHandler(roller, &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: NewReplaceAttr(),
	})

	return withDefaults(slog.New(NewMultiHandler(console, file)), cfg), roller.Close
}

// NewWithWriter creates a configured slog.Logger writing only to w.
// Includes secret redaction for every format.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	return withDefaults(slog.New(newConsoleHandler(cfg, w)), cfg)
}

func newConsoleHandler(cfg Config, w io.Writer) slog.Handler {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: NewReplaceAttr(),
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.NewTextHandler(w, opts)
	case "pretty":
		pretty := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			Prefix:          cfg.Service,
		})
		// charmbracelet/log has no ReplaceAttr hook, so redaction wraps it.
		return NewRedactingHandler(pretty, NewReplaceAttr())
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

func withDefaults(logger *slog.Logger, cfg Config) *slog.Logger {
	return logger.With(
		slog.String("service_name", cfg.Service),
		slog.String("service_version", cfg.Version),
	)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
