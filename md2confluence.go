package md2confluence

import (
	publishcmd "github.com/goliatone/go-md2confluence/internal/commands/publish"
	"github.com/goliatone/go-md2confluence/internal/di"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// PublisherService exports the publish workflow contract.
type PublisherService = publisher.Service

// RunSummary exports the outcome of a publish run.
type RunSummary = publisher.RunSummary

// PublishFileCommand exports the single document command message.
type PublishFileCommand = publishcmd.PublishFileCommand

// PublishDirectoryCommand exports the directory command message.
type PublishDirectoryCommand = publishcmd.PublishDirectoryCommand

// Module represents the top level runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Publisher returns the publish service.
func (m *Module) Publisher() PublisherService {
	return m.container.Publisher()
}

// Loader returns the Markdown document loader.
func (m *Module) Loader() interfaces.DocumentLoader {
	return m.container.Loader()
}

// Converter returns the Markdown converter.
func (m *Module) Converter() interfaces.MarkdownConverter {
	return m.container.Converter()
}

// LoggerProvider returns the configured logger provider.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.container.LoggerProvider()
}

// PublishFileHandler returns the go-command handler for single documents.
func (m *Module) PublishFileHandler() *publishcmd.PublishFileHandler {
	return m.container.PublishFileHandler()
}

// PublishDirectoryHandler returns the go-command handler for directories.
func (m *Module) PublishDirectoryHandler() *publishcmd.PublishDirectoryHandler {
	return m.container.PublishDirectoryHandler()
}
