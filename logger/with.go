package logger

import "log/slog"

//nolint:ireturn // satisfies Logger
func (log *SlogLogger) With(fields ...any) Logger {
	if len(fields) == 0 {
		return log
	}

	return &SlogLogger{logger: log.logger.With(fields...)}
}

// WithRemote scopes a logger to one remote peer.
func WithRemote(log Logger, addr string) Logger { //nolint:ireturn // wraps any Logger
	return log.With(slog.String("addr", addr))
}

// WithCommand adds the request code and opaque of a remoting command.
func WithCommand(log Logger, code, opaque int32) Logger { //nolint:ireturn // wraps any Logger
	return log.With(slog.Group("command",
		slog.Int("code", int(code)),
		slog.Int("opaque", int(opaque)),
	))
}
