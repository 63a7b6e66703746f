package commands

import (
	"context"
	"errors"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// defaultHandlerTimeout is zero: a publish run lasts as long as the document
// set requires. Callers bound it with WithTimeout when needed.
const defaultHandlerTimeout time.Duration = 0

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// MessageFields extracts log fields from a message.
type MessageFields[T command.Message] func(msg T) map[string]any

// Handler wraps command execution with shared concerns (context, logging, error tagging).
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    MessageFields[T]
	telemetry Telemetry[T]
	now       func() time.Time
}

// NewHandler creates a handler that satisfies go-command's Commander interface while applying
// validation, logging and timeout enforcement.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: defaultHandlerTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute and applies validation, context management,
// logging, and error categorisation before delegating to the wrapped function.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}

	ctx = ensureContext(ctx)
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	fields := map[string]any{
		"command": command.GetMessageType(msg),
	}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	logger := logging.WithFields(h.logger.WithContext(ctx), fields)
	logger.Debug("command.execute.start")

	started := h.now()
	err := h.exec(ctx, msg)
	if err == nil {
		err = ctx.Err()
	}

	info := TelemetryInfo{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
		Fields:    fields,
		Duration:  h.now().Sub(started),
		Error:     err,
		Status:    TelemetryStatusSuccess,
		Logger:    logger,
	}
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		info.Status = TelemetryStatusContextError
	default:
		info.Status = TelemetryStatusFailed
	}

	if h.telemetry != nil {
		h.telemetry(ctx, msg, info)
	} else {
		logOutcome(logger, info)
	}

	if info.Status == TelemetryStatusSuccess {
		return nil
	}
	return wrapExecuteError(err)
}

// WithTimeout overrides the default execution timeout.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution. Defaults to a no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger == nil {
			h.logger = logging.NoOp()
			return
		}
		h.logger = logger
	}
}

// WithOperation sets a human-friendly operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields adds message derived fields to every log entry.
func WithMessageFields[T command.Message](fn MessageFields[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithTelemetry replaces the built-in outcome logging with fn.
func WithTelemetry[T command.Message](fn Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = fn
	}
}

func (h *Handler[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
