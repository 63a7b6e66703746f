package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

const (
	rootModule       = "md2confluence"
	markdownModule   = "md2confluence.markdown"
	publisherModule  = "md2confluence.publisher"
	confluenceModule = "md2confluence.confluence"
	commandsModule   = "md2confluence.commands"
)

const (
	fieldDocumentPath  = "document_path"
	fieldDocumentTitle = "title"
	fieldPageID        = "page_id"
)

// ModuleLogger returns a logger scoped to module. A nil provider yields a no-op
// logger so components can run without logging configured.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return logger.WithFields(map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger for loading and conversion.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// PublisherLogger returns the logger for the publish workflow.
func PublisherLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publisherModule)
}

// ConfluenceLogger returns the logger for the REST client.
func ConfluenceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, confluenceModule)
}

// CommandLogger returns the logger for a command module such as "publish",
// tagged with the component and command module fields.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return WithFields(ModuleLogger(provider, commandsModule+"."+name), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}

// WithDocumentContext annotates logger with the document path, page title and
// remote page id. Empty values are skipped.
func WithDocumentContext(logger interfaces.Logger, path, title, pageID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		fields[fieldDocumentTitle] = trimmed
	}
	if trimmed := strings.TrimSpace(pageID); trimmed != "" {
		fields[fieldPageID] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
