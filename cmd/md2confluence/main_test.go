package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-md2confluence/cmd/md2confluence/internal/bootstrap"
	"github.com/goliatone/go-md2confluence/internal/di"
	"github.com/goliatone/go-md2confluence/internal/logging"
)

// fakeConfluence keeps pages by title and serves the endpoints the client uses.
type fakeConfluence struct {
	mu       sync.Mutex
	pages    map[string]map[string]any
	labels   map[string]int
	uploads  []string
	requests []string
}

func newFakeConfluence() *fakeConfluence {
	return &fakeConfluence{pages: map[string]map[string]any{}, labels: map[string]int{}}
}

func (f *fakeConfluence) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/rest/api/content")
	switch {
	case r.Method == http.MethodGet && path == "":
		results := []any{}
		for _, page := range f.pages {
			if page["title"] == r.URL.Query().Get("title") {
				results = append(results, page)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	case r.Method == http.MethodPost && path == "":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := fmt.Sprintf("%d", len(f.pages)+1)
		page := map[string]any{"id": id, "title": body["title"], "version": map[string]any{"number": 1}}
		f.pages[id] = page
		_ = json.NewEncoder(w).Encode(page)
	case strings.HasSuffix(path, "/label"):
		f.labels[strings.Split(path, "/")[1]]++
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	case strings.HasSuffix(path, "/child/attachment") && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	case strings.HasSuffix(path, "/child/attachment"):
		_, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.uploads = append(f.uploads, header.Filename)
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{map[string]any{"id": "att", "title": header.Filename}}})
	default:
		http.NotFound(w, r)
	}
}

func stubEnv(t *testing.T, values map[string]string, opts ...di.Option) {
	t.Helper()
	originalLookup, originalLoad, originalBuilder := envLookup, loadEnvFiles, moduleBuilder
	t.Cleanup(func() {
		envLookup, loadEnvFiles, moduleBuilder = originalLookup, originalLoad, originalBuilder
	})

	envLookup = func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
	loadEnvFiles = func(...string) error { return nil }
	moduleBuilder = func(o bootstrap.Options) (*bootstrap.Module, error) {
		o.DIOptions = append(o.DIOptions, opts...)
		module, err := bootstrap.BuildModule(o)
		if err != nil {
			return nil, err
		}
		module.Logger = logging.NoOp()
		return module, nil
	}
}

var docs = fstest.MapFS{
	"intro.md":         {Data: []byte("# Intro #start\n\n![diagram](img/d.png)")},
	"guides/setup.md":  {Data: []byte("## Setup\n\nSee [[Intro]].")},
	"guides/notes.txt": {Data: []byte("ignored")},
	"img/d.png":        {Data: []byte("PNG")},
}

func TestRunPublishesDirectory(t *testing.T) {
	fake := newFakeConfluence()
	server := httptest.NewServer(fake)
	defer server.Close()

	stubEnv(t, map[string]string{
		"BASE_URL":            server.URL,
		"SPACE_KEY":           "DOCS",
		"CONFLUENCE_USERNAME": "alice",
		"CONFLUENCE_PASSWORD": "secret",
		"LOG_LEVEL":           "error",
	}, di.WithMarkdownFS(docs), di.WithImagesFS(docs))

	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err != nil {
		t.Fatalf("run returned error: %v\n%s", err, out.String())
	}

	titles := map[string]bool{}
	for _, page := range fake.pages {
		titles[page["title"].(string)] = true
	}
	for _, want := range []string{"intro", "setup", "guides"} {
		if !titles[want] {
			t.Fatalf("expected page %q, got %v", want, titles)
		}
	}
	if len(fake.uploads) != 1 || fake.uploads[0] != "d.png" {
		t.Fatalf("expected d.png upload, got %v", fake.uploads)
	}
	if !strings.Contains(out.String(), "documents: 2 created: 2") {
		t.Fatalf("unexpected summary output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "/pages/viewpage.action?pageId=") {
		t.Fatalf("expected page links in output:\n%s", out.String())
	}
}

func TestRunDryRunSkipsRemote(t *testing.T) {
	fake := newFakeConfluence()
	server := httptest.NewServer(fake)
	defer server.Close()

	stubEnv(t, map[string]string{
		"BASE_URL":  server.URL,
		"SPACE_KEY": "DOCS",
		"LOG_LEVEL": "error",
	}, di.WithMarkdownFS(docs), di.WithImagesFS(docs))

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-dry-run", "intro.md"}, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if len(fake.requests) != 0 {
		t.Fatalf("dry run issued requests %v", fake.requests)
	}
	if !strings.Contains(out.String(), "dry-run: 1") {
		t.Fatalf("unexpected summary output:\n%s", out.String())
	}
}

func TestRunRejectsMissingConfiguration(t *testing.T) {
	stubEnv(t, map[string]string{"SPACE_KEY": "DOCS"})

	err := run(context.Background(), nil, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "base url is required") {
		t.Fatalf("expected base url error, got %v", err)
	}
}

func TestRunRejectsExtraArguments(t *testing.T) {
	stubEnv(t, nil)

	if err := run(context.Background(), []string{"a.md", "b.md"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestRunFailsWhenDocumentFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	stubEnv(t, map[string]string{
		"BASE_URL":         server.URL,
		"SPACE_KEY":        "DOCS",
		"CONFLUENCE_TOKEN": "tok",
		"RETRY_ATTEMPTS":   "1",
		"LOG_LEVEL":        "error",
	}, di.WithMarkdownFS(docs), di.WithImagesFS(docs))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-space", "OTHER"}, &out)
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(out.String(), "failed: 2") || !strings.Contains(out.String(), "FAIL intro.md") {
		t.Fatalf("unexpected summary output:\n%s", out.String())
	}
}
