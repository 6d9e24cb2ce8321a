package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger from cfg: human-readable text on
// stderr, plus a JSON stream appended to cfg.LogFile. The returned cleanup
// closes the log file. With an empty LogFile, or when the file cannot be
// opened, the logger is stderr-only and cleanup is a no-op.
func SetupLogger(cfg Config) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	stderrHandler := slog.NewTextHandler(os.Stderr, opts)
	noop := func() error { return nil }

	if cfg.LogFile == "" {
		return slog.New(stderrHandler), noop
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", cfg.LogFile)
		return slog.New(stderrHandler), noop
	}

	logger := slog.New(slogmulti.Fanout(stderrHandler, slog.NewJSONHandler(file, opts)))
	return logger, file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}

// parseLogLevel maps a STUDYBUDDY_LOG_LEVEL value to a slog level,
// defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
