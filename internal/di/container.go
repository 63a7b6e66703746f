package di

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	publishcmd "github.com/goliatone/go-md2confluence/internal/commands/publish"
	"github.com/goliatone/go-md2confluence/internal/confluence"
	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/internal/logging/console"
	"github.com/goliatone/go-md2confluence/internal/logging/gologger"
	"github.com/goliatone/go-md2confluence/internal/markdown"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/internal/runtimeconfig"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Container wires the runtime services from a validated configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	httpClient     *http.Client
	client         interfaces.ConfluenceClient
	converter      *markdown.Converter
	loader         *markdown.Loader
	publisher      publisher.Service
	markdownFS     fs.FS
	imagesFS       fs.FS

	publishFileHandler      *publishcmd.PublishFileHandler
	publishDirectoryHandler *publishcmd.PublishDirectoryHandler
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithConfluenceClient overrides the REST client.
func WithConfluenceClient(client interfaces.ConfluenceClient) Option {
	return func(c *Container) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHTTPClient overrides the transport of the default REST client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithMarkdownFS overrides the filesystem rooted at the markdown base directory.
func WithMarkdownFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.markdownFS = fsys
		}
	}
}

// WithImagesFS overrides the filesystem rooted at the image directory.
func WithImagesFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.imagesFS = fsys
		}
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureClient(); err != nil {
		return nil, err
	}
	c.configureMarkdown()
	c.configurePublisher()
	c.configureCommands()
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("configure go-logger provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureClient() error {
	if c.client != nil {
		return nil
	}
	credential := confluence.SelectCredential(
		c.Config.Confluence.Username,
		c.Config.Confluence.Password,
		c.Config.Confluence.Token,
	)
	if credential == nil && c.Config.Publish.DryRun {
		// Dry runs never reach the client; any credential satisfies construction.
		credential = confluence.Bearer{}
	}

	retry := confluence.DefaultRetryConfig()
	retry.Attempts = uint(c.Config.Confluence.RetryAttempts)

	client, err := confluence.NewClient(confluence.Config{
		BaseURL:    c.Config.Confluence.BaseURL,
		Credential: credential,
		Timeout:    c.Config.Confluence.Timeout,
		Retry:      retry,
		Logger:     logging.ConfluenceLogger(c.loggerProvider),
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("configure confluence client: %w", err)
	}
	logging.ConfluenceLogger(c.loggerProvider).Debug("confluence.client.configured",
		"base_url", client.BaseURL(),
		"auth", credential.Kind(),
	)
	c.client = client
	return nil
}

func (c *Container) configureMarkdown() {
	if c.markdownFS == nil {
		c.markdownFS = os.DirFS(c.Config.Markdown.BaseDir)
	}
	if c.imagesFS == nil {
		c.imagesFS = os.DirFS(c.Config.ImageDir())
	}
	c.converter = markdown.NewConverter(
		markdown.WithRepresentation(interfaces.Representation(c.Config.Markdown.Representation)),
		markdown.WithExtensions(c.Config.Markdown.Extensions...),
	)
	c.loader = markdown.NewLoader(c.markdownFS, markdown.LoaderConfig{
		BasePath:  c.Config.Markdown.BaseDir,
		Pattern:   c.Config.Markdown.Pattern,
		Recursive: c.Config.Markdown.Recursive,
		Logger:    logging.MarkdownLogger(c.loggerProvider),
	})
}

func (c *Container) configurePublisher() {
	c.publisher = publisher.NewService(c.client, c.converter, publisher.Config{
		BaseURL:        c.Config.Confluence.BaseURL,
		SpaceKey:       c.Config.Confluence.SpaceKey,
		Representation: c.converter.Representation(),
	},
		publisher.WithLogger(logging.PublisherLogger(c.loggerProvider)),
		publisher.WithImages(c.imagesFS),
		publisher.WithDryRun(c.Config.Publish.DryRun),
	)
}

func (c *Container) configureCommands() {
	logger := logging.CommandLogger(c.loggerProvider, "publish")
	c.publishFileHandler = publishcmd.NewPublishFileHandler(c.loader, c.publisher, logger)
	c.publishDirectoryHandler = publishcmd.NewPublishDirectoryHandler(c.loader, c.publisher, logger)
}

// LoggerProvider returns the configured provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// ConfluenceClient returns the REST client.
func (c *Container) ConfluenceClient() interfaces.ConfluenceClient { return c.client }

// Converter returns the Markdown converter.
func (c *Container) Converter() *markdown.Converter { return c.converter }

// Loader returns the document loader.
func (c *Container) Loader() interfaces.DocumentLoader { return c.loader }

// Publisher returns the publish service.
func (c *Container) Publisher() publisher.Service { return c.publisher }

// PublishFileHandler returns the single file command handler.
func (c *Container) PublishFileHandler() *publishcmd.PublishFileHandler { return c.publishFileHandler }

// PublishDirectoryHandler returns the directory command handler.
func (c *Container) PublishDirectoryHandler() *publishcmd.PublishDirectoryHandler {
	return c.publishDirectoryHandler
}
