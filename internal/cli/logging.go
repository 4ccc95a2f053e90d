package cli

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the slog logger from the global flags. With --log-file
// set, logs go to a size-rotated file; otherwise to stderr.
func newLogger() *slog.Logger {
	var level slog.Level
	switch flags.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if flags.logFile != "" {
		out = &lumberjack.Logger{
			Filename:   flags.logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
