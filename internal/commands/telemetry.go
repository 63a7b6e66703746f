package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// TelemetryStatus captures the result category for command execution.
type TelemetryStatus string

const (
	// TelemetryStatusSuccess indicates the command completed without errors.
	TelemetryStatusSuccess TelemetryStatus = "success"
	// TelemetryStatusFailed indicates the command execution returned an error.
	TelemetryStatusFailed TelemetryStatus = "failed"
	// TelemetryStatusContextError indicates the run was cancelled or ran out of time.
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes a command execution outcome provided to telemetry callbacks.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry represents an optional callback invoked after command execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry returns a telemetry callback that logs command outcomes
// with logger, adding the run context fields carried by ctx.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = logging.OrNoOp(logger)
	return func(ctx context.Context, _ T, info TelemetryInfo) {
		logOutcome(logging.WithFields(logger.WithContext(ctx), info.Fields), info)
	}
}

func logOutcome(entry interfaces.Logger, info TelemetryInfo) {
	args := []any{"duration_ms", info.Duration.Milliseconds(), "status", string(info.Status)}
	switch info.Status {
	case TelemetryStatusSuccess:
		entry.Info("command.execute.success", args...)
	case TelemetryStatusContextError:
		entry.Error("command.execute.context_error", append(args, "error", info.Error)...)
	default:
		entry.Error("command.execute.failed", append(args, "error", info.Error)...)
	}
}
