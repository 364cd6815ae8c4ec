package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Log levels, most severe first.
const (
	ERROR_LEVEL = iota //nolint:revive,stylecheck // shared constant names
	WARN_LEVEL
	INFO_LEVEL
	DEBUG_LEVEL
)

// Logger is our contract for the logger.
//
// Fields are slog key/value pairs or slog.Attr values.
type Logger interface {
	Error(msg string, fields ...any)
	ErrorWithContext(ctx context.Context, msg string, fields ...any)

	Warn(msg string, fields ...any)
	WarnWithContext(ctx context.Context, msg string, fields ...any)

	Info(msg string, fields ...any)
	InfoWithContext(ctx context.Context, msg string, fields ...any)

	Debug(msg string, fields ...any)
	DebugWithContext(ctx context.Context, msg string, fields ...any)

	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger

	// Closer is the interface that wraps the basic Close method.
	io.Closer
}

// Configuration of a logger instance.
type Configuration struct {
	Writer     io.Writer
	TimeFormat string
	Level      int
}

// Default returns the configuration used when nothing is set.
func Default() Configuration {
	return Configuration{
		Writer:     os.Stdout,
		TimeFormat: time.RFC3339Nano,
		Level:      INFO_LEVEL,
	}
}

// ParseLevel accepts a level name (error, warn, info, debug) or its number.
func ParseLevel(value string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error", "0":
		return ERROR_LEVEL, nil
	case "warn", "warning", "1":
		return WARN_LEVEL, nil
	case "info", "2", "":
		return INFO_LEVEL, nil
	case "debug", "3":
		return DEBUG_LEVEL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, value)
	}
}

// Validate checks the configuration and fills empty values with defaults.
func (c *Configuration) Validate() error {
	if c.Level < ERROR_LEVEL || c.Level > DEBUG_LEVEL {
		return ErrInvalidLogLevel
	}

	if c.Writer == nil {
		c.Writer = os.Stdout
	}

	if c.TimeFormat == "" {
		c.TimeFormat = time.RFC3339Nano
	}

	return nil
}
