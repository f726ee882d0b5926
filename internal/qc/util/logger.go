package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// InitLogger installs the JSON logger as the slog default. level is one of
// debug, info, warn, error; anything else means info.
func InitLogger(level string) {
	InitLoggerTo(os.Stdout, level)
}

func InitLoggerTo(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func GetLogger() *slog.Logger {
	if Logger == nil {
		InitLogger("info")
	}
	return Logger
}

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
