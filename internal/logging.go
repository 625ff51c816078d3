package internal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewCLILogger logs human-readable records to stderr so stdout stays clean for
// command output. Verbose lowers the level to debug.
func NewCLILogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewServerLogger logs JSON records to stdout
func NewServerLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// NewMCPLogger logs to mcp.log under the cache directory. Stdio is owned by
// the MCP transport, so when file logging is disabled or the file cannot be
// opened all records are discarded. The returned closer releases the file.
func NewMCPLogger(config *Config) (*slog.Logger, io.Closer) {
	if !config.MCPLogEnabled {
		return slog.New(slog.DiscardHandler), nopCloser{}
	}

	if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
		return slog.New(slog.DiscardHandler), nopCloser{}
	}

	logPath := filepath.Join(config.CacheDir, "mcp.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.DiscardHandler), nopCloser{}
	}

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	return logger.With("component", "mcp"), logFile
}

// MCPLogPath returns where NewMCPLogger writes
func MCPLogPath(config *Config) string {
	return filepath.Join(config.CacheDir, "mcp.log")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
