package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Config selects level, output format and module focus for go-logger.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider adapts a go-logger root logger to interfaces.LoggerProvider.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider builds the go-logger root. Format accepts json (default),
// console and pretty.
func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	if focus := trimAll(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

// GetLogger returns the child logger for name, or the root when name is blank.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return wrap(p.root)
	}
	return wrap(p.root.GetLogger(name))
}

func wrap(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, args...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, args...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if with, ok := l.inner.(glog.FieldsLogger); ok {
		return wrap(with.WithFields(maps.Clone(fields)))
	}

	// loggers without field support get sorted key/value pairs through With
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	if with, ok := l.inner.(interface{ With(...any) *glog.BaseLogger }); ok {
		return wrap(with.With(args...))
	}
	return l
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	if fields := logging.ContextFields(ctx); len(fields) > 0 {
		return wrap(l.inner.WithContext(ctx)).WithFields(fields)
	}
	return wrap(l.inner.WithContext(ctx))
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return ""
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
