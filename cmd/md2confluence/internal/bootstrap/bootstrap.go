package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	md2confluence "github.com/goliatone/go-md2confluence"
	"github.com/goliatone/go-md2confluence/internal/di"
	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Options captures configuration for CLI bootstraps.
type Options struct {
	Config         md2confluence.Config
	LoggerProvider interfaces.LoggerProvider
	DIOptions      []di.Option
}

// Module wraps the runtime module and the CLI logger.
type Module struct {
	Module *md2confluence.Module
	Logger interfaces.Logger
}

// BuildModule constructs a module from opts.Config. Validation happens here,
// before any remote call.
func BuildModule(opts Options) (*Module, error) {
	diOpts := append([]di.Option{}, opts.DIOptions...)
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := md2confluence.New(opts.Config, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise module: %w", err)
	}

	return &Module{
		Module: module,
		Logger: logging.ModuleLogger(module.LoggerProvider(), "md2confluence.cli"),
	}, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}
