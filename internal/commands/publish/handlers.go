package publishcmd

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-md2confluence/internal/commands"
	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

const (
	publishFileOperation      = "publish.file"
	publishDirectoryOperation = "publish.directory"
)

// ErrDocumentsFailed is returned when at least one document of a run failed.
// The summary passed to the ResultCallback lists them.
var ErrDocumentsFailed = errors.New("publish command: one or more documents failed")

var (
	_ command.Commander[PublishFileCommand]      = (*PublishFileHandler)(nil)
	_ command.Commander[PublishDirectoryCommand] = (*PublishDirectoryHandler)(nil)
)

// PublishFileHandler loads, converts and publishes one document.
type PublishFileHandler struct {
	inner *commands.Handler[PublishFileCommand]
}

// NewPublishFileHandler creates a handler bound to the loader and publisher.
func NewPublishFileHandler(loader interfaces.DocumentLoader, service publisher.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishFileCommand]) *PublishFileHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg PublishFileCommand) error {
		doc, err := loader.LoadFile(ctx, msg.Path)
		if err != nil {
			summary := publisher.RunSummary{Total: 1, Failed: 1, Results: []publisher.DocumentResult{{FilePath: msg.Path, Err: err}}}
			invokeCallback(msg.ResultCallback, summary)
			return fmt.Errorf("load %s: %w", msg.Path, err)
		}
		summary := service.PublishAll(ctx, []*interfaces.Document{doc})
		invokeCallback(msg.ResultCallback, summary)
		return summaryError(summary)
	}

	handlerOpts := []commands.HandlerOption[PublishFileCommand]{
		commands.WithLogger[PublishFileCommand](baseLogger),
		commands.WithOperation[PublishFileCommand](publishFileOperation),
		commands.WithMessageFields(func(msg PublishFileCommand) map[string]any {
			return map[string]any{"path": msg.Path}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PublishFileCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishFileHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishFileCommand].
func (h *PublishFileHandler) Execute(ctx context.Context, msg PublishFileCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PublishDirectoryHandler discovers and publishes every document of a directory.
type PublishDirectoryHandler struct {
	inner *commands.Handler[PublishDirectoryCommand]
}

// NewPublishDirectoryHandler creates a handler bound to the loader and publisher.
func NewPublishDirectoryHandler(loader interfaces.DocumentLoader, service publisher.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishDirectoryCommand]) *PublishDirectoryHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg PublishDirectoryCommand) error {
		docs, err := loader.LoadDirectory(ctx, msg.Directory)
		if err != nil {
			return fmt.Errorf("load %s: %w", msg.Directory, err)
		}
		logging.WithFields(baseLogger, map[string]any{
			"directory": msg.Directory,
			"documents": len(docs),
		}).Info("publish.command.directory.discovered")

		summary := service.PublishAll(ctx, docs)
		invokeCallback(msg.ResultCallback, summary)
		return summaryError(summary)
	}

	handlerOpts := []commands.HandlerOption[PublishDirectoryCommand]{
		commands.WithLogger[PublishDirectoryCommand](baseLogger),
		commands.WithOperation[PublishDirectoryCommand](publishDirectoryOperation),
		commands.WithMessageFields(func(msg PublishDirectoryCommand) map[string]any {
			return map[string]any{"directory": msg.Directory}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PublishDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishDirectoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishDirectoryCommand].
func (h *PublishDirectoryHandler) Execute(ctx context.Context, msg PublishDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, summary publisher.RunSummary) {
	if cb != nil {
		cb(summary)
	}
}

// summaryError turns a summary with failures into an error. A cancelled run
// reports the context error so the handler classifies it as such.
func summaryError(summary publisher.RunSummary) error {
	if !summary.HasFailures() {
		return nil
	}
	for _, res := range summary.Failures() {
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return res.Err
		}
	}
	return fmt.Errorf("%w: %d of %d", ErrDocumentsFailed, summary.Failed, summary.Total)
}
