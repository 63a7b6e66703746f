package di

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	publishcmd "github.com/goliatone/go-md2confluence/internal/commands/publish"
	"github.com/goliatone/go-md2confluence/internal/logging/console"
	"github.com/goliatone/go-md2confluence/internal/logging/gologger"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/internal/runtimeconfig"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Confluence.BaseURL = "https://wiki.example.com"
	cfg.Confluence.SpaceKey = "DOCS"
	cfg.Confluence.Token = "tok"
	return cfg
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Confluence.SpaceKey = ""
	if _, err := NewContainer(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg, WithMarkdownFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}
	if logger := provider.GetLogger("md2confluence.test"); logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestDryRunContainerMakesNoRequests(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Confluence.BaseURL = server.URL
	cfg.Confluence.Token = ""
	cfg.Publish.DryRun = true

	var out bytes.Buffer
	container, err := NewContainer(cfg,
		WithLoggerProvider(console.NewProvider(console.Options{Writer: &out, OmitTime: true})),
		WithMarkdownFS(fstest.MapFS{
			"intro.md":        {Data: []byte("# Intro\n\n![d](d.png)")},
			"guides/setup.md": {Data: []byte("# Setup #howto")},
		}),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	var summary publisher.RunSummary
	err = container.PublishDirectoryHandler().Execute(context.Background(), publishcmd.PublishDirectoryCommand{
		Directory:      ".",
		ResultCallback: func(s publisher.RunSummary) { summary = s },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if summary.DryRun != 2 {
		t.Fatalf("expected two dry run documents, got %+v", summary)
	}
	if requests.Load() != 0 {
		t.Fatalf("dry run issued %d requests", requests.Load())
	}
	if !strings.Contains(out.String(), "publisher.page.dry_run") {
		t.Fatalf("expected dry run log lines, got %s", out.String())
	}
}

func TestContainerAcceptsClientOverride(t *testing.T) {
	var client interfaces.ConfluenceClient = stubClient{}
	container, err := NewContainer(testConfig(), WithConfluenceClient(client), WithMarkdownFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.ConfluenceClient().(stubClient); !ok {
		t.Fatalf("expected override client, got %T", container.ConfluenceClient())
	}
}

type stubClient struct {
	interfaces.ConfluenceClient
}
