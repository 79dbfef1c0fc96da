package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger writes info level JSON to stdout until Init is called.
var Logger = newJSONLogger(os.Stdout, false)

// Init initializes the logger to output JSON to stdout.
func Init(debug bool) {
	InitWithWriter(os.Stdout, debug)
}

// InitWithWriter is Init with an explicit destination, used by tests.
func InitWithWriter(w io.Writer, debug bool) {
	Logger = newJSONLogger(w, debug)
}

func newJSONLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	return slog.New(handler)
}

func get() *slog.Logger {
	return Logger
}

// LogError logs an error with a message and optional key-value pairs
func LogError(msg string, err error, args ...any) {
	attrs := []any{"error", err}
	attrs = append(attrs, args...)
	get().Error(msg, attrs...)
}

func LogInfo(msg string, args ...any) {
	get().Info(msg, args...)
}

func LogWarn(msg string, args ...any) {
	get().Warn(msg, args...)
}

func LogDebug(msg string, args ...any) {
	get().Debug(msg, args...)
}
