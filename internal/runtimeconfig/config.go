package runtimeconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var ErrBaseURLRequired = errors.New("md2confluence config: base url is required")
var ErrBaseURLInvalid = errors.New("md2confluence config: base url is invalid")
var ErrSpaceKeyRequired = errors.New("md2confluence config: space key is required")

// ErrCredentialRequired indicates neither a token nor a username was configured.
var ErrCredentialRequired = errors.New("md2confluence config: a token or a username and password are required")
var ErrPasswordRequired = errors.New("md2confluence config: password is required for basic authentication")
var ErrBaseDirRequired = errors.New("md2confluence config: base directory is required")
var ErrRepresentationInvalid = errors.New("md2confluence config: representation must be wiki or storage")
var ErrTimeoutInvalid = errors.New("md2confluence config: http timeout must be zero or positive")
var ErrRetryAttemptsInvalid = errors.New("md2confluence config: retry attempts must be at least 1")
var ErrEnvValueInvalid = errors.New("md2confluence config: environment value is invalid")
var ErrLoggingProviderRequired = errors.New("md2confluence config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("md2confluence config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("md2confluence config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("md2confluence config: logging format is invalid")

const (
	EnvBaseURL        = "BASE_URL"
	EnvSpaceKey       = "SPACE_KEY"
	EnvUsername       = "CONFLUENCE_USERNAME"
	EnvPassword       = "CONFLUENCE_PASSWORD"
	EnvToken          = "CONFLUENCE_TOKEN"
	EnvBaseDir        = "BASE_DIR"
	EnvImageDir       = "IMAGE_DIR"
	EnvRepresentation = "REPRESENTATION"
	EnvHTTPTimeout    = "HTTP_TIMEOUT"
	EnvRetryAttempts  = "RETRY_ATTEMPTS"
	EnvLogProvider    = "LOG_PROVIDER"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

var httpSchemePattern = regexp.MustCompile(`^https?://`)

// Config aggregates everything a publish run needs. It is built once, then
// validated before any remote call.
type Config struct {
	Confluence ConfluenceConfig
	Markdown   MarkdownConfig
	Publish    PublishConfig
	Logging    LoggingConfig
}

// ConfluenceConfig captures the remote service and its credentials.
type ConfluenceConfig struct {
	BaseURL  string
	SpaceKey string
	Username string
	Password string
	// Token selects bearer authentication and wins over Username/Password.
	Token string
	// Timeout bounds each HTTP request; zero disables the bound.
	Timeout       time.Duration
	RetryAttempts int
}

// MarkdownConfig captures discovery and conversion behaviour.
type MarkdownConfig struct {
	BaseDir string
	// ImageDir defaults to BaseDir when empty.
	ImageDir       string
	Pattern        string
	Recursive      bool
	Representation string
	Extensions     []string
}

// PublishConfig captures run level switches.
type PublishConfig struct {
	DryRun bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the defaults used when the environment is silent.
func DefaultConfig() Config {
	return Config{
		Confluence: ConfluenceConfig{
			Timeout:       0,
			RetryAttempts: 3,
		},
		Markdown: MarkdownConfig{
			BaseDir:        ".",
			Pattern:        "*.md",
			Recursive:      true,
			Representation: "wiki",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// FromEnv overlays the environment on DefaultConfig. lookup follows the
// os.LookupEnv contract; a nil lookup yields the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if lookup == nil {
		return cfg, nil
	}

	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if v, ok := get(EnvBaseURL); ok {
		cfg.Confluence.BaseURL = v
	}
	if v, ok := get(EnvSpaceKey); ok {
		cfg.Confluence.SpaceKey = v
	}
	if v, ok := get(EnvUsername); ok {
		cfg.Confluence.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		cfg.Confluence.Password = v
	}
	if v, ok := get(EnvToken); ok {
		cfg.Confluence.Token = v
	}
	if v, ok := get(EnvBaseDir); ok {
		cfg.Markdown.BaseDir = v
	}
	if v, ok := get(EnvImageDir); ok {
		cfg.Markdown.ImageDir = v
	}
	if v, ok := get(EnvRepresentation); ok {
		cfg.Markdown.Representation = strings.ToLower(v)
	}
	if v, ok := get(EnvHTTPTimeout); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q: %v", ErrEnvValueInvalid, EnvHTTPTimeout, v, err)
		}
		cfg.Confluence.Timeout = timeout
	}
	if v, ok := get(EnvRetryAttempts); ok {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q: %v", ErrEnvValueInvalid, EnvRetryAttempts, v, err)
		}
		cfg.Confluence.RetryAttempts = attempts
	}
	if v, ok := get(EnvLogProvider); ok {
		cfg.Logging.Provider = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Logging.Format = v
	}
	return cfg, nil
}

// ImageDir returns the configured image root, falling back to BaseDir.
func (cfg Config) ImageDir() string {
	if dir := strings.TrimSpace(cfg.Markdown.ImageDir); dir != "" {
		return dir
	}
	return cfg.Markdown.BaseDir
}

// Validate performs consistency checks. Credentials are only required when
// the run talks to the remote service.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Confluence.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	if err := validation.Validate(cfg.Confluence.BaseURL,
		is.URL,
		validation.Match(httpSchemePattern).Error("must start with http:// or https://"),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrBaseURLInvalid, err)
	}
	if strings.TrimSpace(cfg.Confluence.SpaceKey) == "" {
		return ErrSpaceKeyRequired
	}
	if !cfg.Publish.DryRun {
		if err := cfg.validateCredential(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cfg.Markdown.BaseDir) == "" {
		return ErrBaseDirRequired
	}
	if err := validation.Validate(strings.ToLower(strings.TrimSpace(cfg.Markdown.Representation)),
		validation.In("", "wiki", "storage"),
	); err != nil {
		return fmt.Errorf("%w: %s", ErrRepresentationInvalid, cfg.Markdown.Representation)
	}
	if cfg.Confluence.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	if cfg.Confluence.RetryAttempts < 1 {
		return fmt.Errorf("%w: %d", ErrRetryAttemptsInvalid, cfg.Confluence.RetryAttempts)
	}
	return cfg.validateLogging()
}

func (cfg Config) validateCredential() error {
	if strings.TrimSpace(cfg.Confluence.Token) != "" {
		return nil
	}
	if strings.TrimSpace(cfg.Confluence.Username) == "" {
		return ErrCredentialRequired
	}
	if cfg.Confluence.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

func (cfg Config) validateLogging() error {
	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
