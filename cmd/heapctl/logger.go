package main

import (
	"io"
	"log/slog"
	"os"
)

// logger is the CLI logger. It discards everything until initLogger
// enables it.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// loggerOptions configures the logger initialization.
type loggerOptions struct {
	Enabled bool       // If false, all logging is discarded
	Path    string     // Log file; stderr when empty
	Level   slog.Level // Minimum log level. Default: LevelDebug when enabled
}

// initLogger configures logging. Logs to a file are JSON, logs to stderr
// are text.
func initLogger(opts loggerOptions) error {
	if !opts.Enabled {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	if opts.Path == "" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, hopts))
		return nil
	}

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewJSONHandler(f, hopts))
	return nil
}
