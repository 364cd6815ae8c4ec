package logger

import (
	"context"
	"log/slog"

	"github.com/shortlink-org/go-sdk/remoting/logger/tracer"
)

// SlogLogger writes JSON records through log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

var _ Logger = (*SlogLogger)(nil)

func New(cfg Configuration) (*SlogLogger, error) {
	// Check config and set default values if needed
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{
		Level: convertLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String(slog.TimeKey, a.Value.Time().Format(cfg.TimeFormat))
			}

			return a
		},
	})

	return &SlogLogger{logger: slog.New(handler)}, nil
}

// Nop returns a logger that drops every record.
func Nop() *SlogLogger {
	return &SlogLogger{logger: slog.New(slog.DiscardHandler)}
}

func (log *SlogLogger) Close() error {
	return nil
}

func (log *SlogLogger) Error(msg string, fields ...any) {
	log.logger.Error(msg, fields...)
}

// ErrorWithContext marks the record with error=true.
func (log *SlogLogger) ErrorWithContext(ctx context.Context, msg string, fields ...any) {
	log.logWithContext(ctx, slog.LevelError, msg, append([]any{"error", true}, fields...)...)
}

func (log *SlogLogger) Warn(msg string, fields ...any) {
	log.logger.Warn(msg, fields...)
}

func (log *SlogLogger) WarnWithContext(ctx context.Context, msg string, fields ...any) {
	log.logWithContext(ctx, slog.LevelWarn, msg, fields...)
}

func (log *SlogLogger) Info(msg string, fields ...any) {
	log.logger.Info(msg, fields...)
}

func (log *SlogLogger) InfoWithContext(ctx context.Context, msg string, fields ...any) {
	log.logWithContext(ctx, slog.LevelInfo, msg, fields...)
}

func (log *SlogLogger) Debug(msg string, fields ...any) {
	log.logger.Debug(msg, fields...)
}

func (log *SlogLogger) DebugWithContext(ctx context.Context, msg string, fields ...any) {
	log.logWithContext(ctx, slog.LevelDebug, msg, fields...)
}

// convertLevel converts our log level to slog level
func convertLevel(level int) slog.Level {
	switch level {
	case ERROR_LEVEL:
		return slog.LevelError
	case WARN_LEVEL:
		return slog.LevelWarn
	case DEBUG_LEVEL:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func (log *SlogLogger) logWithContext(ctx context.Context, level slog.Level, msg string, fields ...any) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !log.logger.Enabled(ctx, level) {
		return
	}

	fields = tracer.NewTraceFromContext(ctx, level.String(), msg, fields...)

	log.logger.Log(ctx, level, msg, fields...)
}
