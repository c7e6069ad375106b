// Package logging configures structured JSON logging for govstandards.
//
// Logs go to stderr by default. When a log file is configured the
// rotating writer takes over, and in MCP stdio mode the process must
// stay silent on stdout and stderr entirely: stdout carries JSON-RPC
// frames, so file-only logging is the only safe option there.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how the process logger is built.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// FilePath enables the rotating file writer when non-empty.
	FilePath string
	// MaxSizeMB is the rotation threshold per file (default 10).
	MaxSizeMB int
	// MaxFiles is how many rotated files to keep (default 5).
	MaxFiles int
	// Stderr mirrors log output to stderr. Must be false in MCP
	// stdio mode.
	Stderr bool
}

// DefaultLogPath is where file logging goes when no explicit path is
// configured: <dataDir>/logs/server.log.
func DefaultLogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "server.log")
}

// Setup builds a JSON slog.Logger from opts and installs it as the
// default logger. The returned cleanup flushes and closes the log file;
// call it on process exit.
func Setup(opts Options) (func(), error) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}

	var sinks []io.Writer
	cleanup := func() {}

	if opts.FilePath != "" {
		writer, err := NewRotatingWriter(opts.FilePath, opts.MaxSizeMB, opts.MaxFiles)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, writer)
		cleanup = func() {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}
	if opts.Stderr {
		sinks = append(sinks, os.Stderr)
	}
	if len(sinks) == 0 {
		// nothing configured at all: silent logger
		sinks = append(sinks, io.Discard)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(sinks...), &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// SetupStdio configures logging for the MCP stdio server: file-only,
// never stderr, so the JSON-RPC stream stays clean. An empty level
// defaults to info.
func SetupStdio(level, filePath string) (func(), error) {
	return Setup(Options{
		Level:    level,
		FilePath: filePath,
		Stderr:   false,
	})
}

// ParseLevel maps a config string onto a slog.Level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
