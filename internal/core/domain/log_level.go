package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelTrace represents the most verbose output ("silly").
	LogLevelTrace LogLevel = -8
	// LogLevelDebug represents debug-level verbosity ("verbose").
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
	// LogLevelMute silences all output.
	LogLevelMute LogLevel = 12
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelMute:
		return "MUTE"
	default:
		return "INFO"
	}
}

// ParseLogLevel accepts backfill's level names as well as the conventional ones.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silly", "trace":
		return LogLevelTrace, nil
	case "verbose", "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "mute", "silent", "off":
		return LogLevelMute, nil
	default:
		return LogLevelInfo, zerr.With(zerr.Wrap(ErrInvalidLogLevel, "unrecognized log level"), "level", s)
	}
}
