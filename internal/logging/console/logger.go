package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Level is the severity of an entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel maps a configuration value such as "debug" or "warning" to a Level.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "", "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Options configures the console provider. Zero values write to stderr with
// timestamps at INFO and above.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
	// OmitTime drops the leading timestamp, which keeps interactive output short.
	OmitTime bool
}

type provider struct {
	writer   io.Writer
	clock    func() time.Time
	minLevel Level
	omitTime bool
	mu       sync.Mutex
}

// NewProvider returns a LoggerProvider that writes one key=value line per entry.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{
		writer:   opts.Writer,
		clock:    opts.TimeFunc,
		minLevel: LevelInfo,
		omitTime: opts.OmitTime,
	}
	if p.writer == nil {
		p.writer = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if opts.MinLevel != nil {
		p.minLevel = *opts.MinLevel
	}
	return p
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{
		provider: p,
		fields:   map[string]any{"logger": name},
	}
}

type consoleLogger struct {
	provider *provider
	fields   map[string]any
	ctx      context.Context
}

var _ interfaces.Logger = (*consoleLogger)(nil)

func (l *consoleLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, fields)
	return &consoleLogger{provider: l.provider, fields: merged, ctx: l.ctx}
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	return &consoleLogger{provider: l.provider, fields: maps.Clone(l.fields), ctx: ctx}
}

func (l *consoleLogger) log(level Level, msg string, args []any) {
	if l.provider == nil || level < l.provider.minLevel {
		return
	}

	fields := map[string]any{}
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	appendArgs(fields, args)

	var b strings.Builder
	if !l.provider.omitTime {
		b.WriteString(l.provider.clock().UTC().Format(time.RFC3339Nano))
		b.WriteByte(' ')
	}
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[key]))
	}
	b.WriteByte('\n')

	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()
	// best effort, a failing writer must not fail the publish run
	_, _ = io.WriteString(l.provider.writer, b.String())
}

// appendArgs folds slog style key/value pairs into fields. A trailing value
// without a key, or a non-string key, is stored under a positional name.
func appendArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			fields[positionalKey(i/2)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			fields[positionalKey(i/2)] = args[i+1]
			continue
		}
		fields[key] = args[i+1]
	}
}

func positionalKey(position int) string {
	return "field_" + strconv.Itoa(position)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quoteIfNeeded(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case error:
		return quoteIfNeeded(v.Error())
	case fmt.Stringer:
		return quoteIfNeeded(v.String())
	case []string:
		return quoteIfNeeded(strings.Join(v, ","))
	default:
		return quoteIfNeeded(fmt.Sprint(v))
	}
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return `""`
	}
	if strings.IndexFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(value)
	}
	return value
}
