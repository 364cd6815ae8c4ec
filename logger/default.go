package logger

import (
	"context"
	"time"

	"github.com/shortlink-org/go-sdk/remoting/config"
)

// NewDefault builds a logger from LOG_LEVEL (name or number) and LOG_TIME_FORMAT.
//
//nolint:ireturn // callers only need the interface
func NewDefault(_ context.Context, cfg *config.Config) (Logger, func(), error) {
	cfg.SetDefault("LOG_LEVEL", "info")
	cfg.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)

	level, err := ParseLevel(cfg.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, nil, err
	}

	log, err := New(Configuration{
		Level:      level,
		TimeFormat: cfg.GetString("LOG_TIME_FORMAT"),
	})
	if err != nil {
		return nil, nil, err
	}

	return log, func() { _ = log.Close() }, nil
}
