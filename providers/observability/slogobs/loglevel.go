package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is one step below slog.LevelDebug and is used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

// ParseLogLevel maps TRACE, DEBUG, INFO, WARN/WARNING and ERROR
// (case-insensitive) to a slog.Level. Anything else yields INFO.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogLevelFromEnv reads ANTITOK_LOG_LEVEL, then LOG_LEVEL, defaulting to INFO.
func LogLevelFromEnv() slog.Level {
	for _, key := range []string{"ANTITOK_LOG_LEVEL", "LOG_LEVEL"} {
		if value := os.Getenv(key); value != "" {
			return ParseLogLevel(value)
		}
	}
	return slog.LevelInfo
}

// levelString names a level using the nearest bucket at or below it.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
