// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up structured logging for sessionchat.
//
// Logs go to a rotated JSON file rather than the terminal, which belongs to
// the TUI or REPL.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string

	// Level is one of debug, info, warn, error.
	Level string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init installs a JSON slog logger writing to a rotated file as the default
// logger. The returned closer flushes and closes the file.
func Init(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.File == "" {
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		slog.SetDefault(logger)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	logger := New(rotator, opts.Level)
	slog.SetDefault(logger)
	return logger, rotator, nil
}

// New creates a JSON logger on w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a config level name to a slog level. Unknown names
// default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
