package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-md2confluence/internal/logging"
)

func TestNewProviderCreatesLogger(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("md2confluence.test")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	child := logger.WithFields(map[string]any{"module": "md2confluence.test"})
	if child == nil {
		t.Fatal("expected WithFields to return logger")
	}
	child.Debug("adapter.initialised")
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestAdapterDelegatesToUnderlyingLogger(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)

	adapted.Trace("trace", "key", "value")
	adapted.Debug("debug")
	adapted.Info("info")
	adapted.Warn("warn")
	adapted.Error("error")
	adapted.Fatal("fatal")

	fields := map[string]any{"title": "Home"}
	adapted.WithFields(fields)
	fields["title"] = "Other"
	if len(stub.fields) != 1 || stub.fields[0]["title"] != "Home" {
		t.Fatalf("expected cloned fields, got %#v", stub.fields)
	}

	wantCalls := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if len(stub.calls) != len(wantCalls) {
		t.Fatalf("expected %d calls, got %d", len(wantCalls), len(stub.calls))
	}
	for i, want := range wantCalls {
		if stub.calls[i] != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, stub.calls[i])
		}
	}
}

func TestAdapterWithContextAppliesContextFields(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"run_id": "r-1"})
	adapted.WithContext(ctx)

	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", stub.contexts)
	}
	if len(stub.fields) != 1 || stub.fields[0]["run_id"] != "r-1" {
		t.Fatalf("expected run_id field from context, got %#v", stub.fields)
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
