package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct {
	Name string
}

func (testMessage) Type() string { return "md2confluence.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "md2confluence.test.invalid" }

func (invalidMessage) Validate() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestHandlerKeepsCategorisedErrors(t *testing.T) {
	remote := goerrors.Wrap(errors.New("401"), goerrors.CategoryAuth, "confluence page lookup failed")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return remote
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryAuth) {
		t.Fatalf("expected auth category to survive, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var got TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	},
		WithOperation[testMessage]("test.run"),
		WithMessageFields(func(msg testMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
			got = info
		}),
	)

	if err := h.Execute(context.Background(), testMessage{Name: "docs"}); err == nil {
		t.Fatal("expected error")
	}
	if got.Status != TelemetryStatusFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
	if got.Operation != "test.run" || got.Fields["name"] != "docs" || got.Command != "md2confluence.test.message" {
		t.Fatalf("unexpected telemetry info %+v", got)
	}
}
