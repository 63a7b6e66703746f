package logging

import (
	"maps"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// WithFields attaches a copy of fields to logger. Nil loggers and empty maps
// are returned untouched.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	copied := make(map[string]any, len(fields))
	maps.Copy(copied, fields)
	return logger.WithFields(copied)
}

// OrNoOp returns logger, or a no-op logger when logger is nil.
func OrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}
