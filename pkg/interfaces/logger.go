package interfaces

import "context"

// Logger is the leveled logging contract used across the publisher. It mirrors
// the surface of github.com/goliatone/go-logger so that package can be adapted
// without extra glue.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithFields(fields map[string]any) Logger
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}
