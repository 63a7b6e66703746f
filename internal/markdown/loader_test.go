package markdown

import (
	"context"
	"reflect"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.md":              {Data: []byte("# Home\n\nWelcome #start")},
		"guides/setup.md":       {Data: []byte("---\ntitle: Setup Guide\ntags:\n  - onboarding\n  - \"#setup\"\n---\n\n## Install")},
		"guides/arch.png":       {Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		"guides/deep/nested.md": {Data: []byte("nested body")},
		"guides/broken.md":      {Data: []byte("---\ntitle: [unclosed\n---\nbody")},
		"notes.txt":             {Data: []byte("not markdown")},
	}
}

func TestLoaderLoadDirectoryRecursive(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs", Recursive: true})

	docs, err := loader.LoadDirectory(context.Background(), ".")
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	var paths []string
	for _, doc := range docs {
		paths = append(paths, doc.FilePath)
	}
	want := []string{"guides/broken.md", "guides/deep/nested.md", "guides/setup.md", "index.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("unexpected documents %v", paths)
	}

	nested := docs[1]
	if nested.Title != "nested" || nested.Folder != "guides/deep" {
		t.Fatalf("unexpected derived values: title=%q folder=%q", nested.Title, nested.Folder)
	}
	if len(nested.Checksum) != 32 {
		t.Fatalf("expected sha256 checksum, got %d bytes", len(nested.Checksum))
	}
	if docs[3].Folder != "" {
		t.Fatalf("expected root document to have empty folder, got %q", docs[3].Folder)
	}
}

func TestLoaderLoadDirectoryNonRecursive(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs"})

	docs, err := loader.LoadDirectory(context.Background(), ".")
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "index.md" {
		t.Fatalf("expected only index.md, got %d documents", len(docs))
	}
}

func TestLoaderLoadFileParsesFrontMatter(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs"})

	doc, err := loader.LoadFile(context.Background(), "guides/setup.md")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.Title != "setup" {
		t.Fatalf("expected title derived from file name, got %q", doc.Title)
	}
	if doc.FrontMatter.Title != "Setup Guide" {
		t.Fatalf("expected front matter title, got %q", doc.FrontMatter.Title)
	}
	if !reflect.DeepEqual(doc.FrontMatter.Tags, []string{"onboarding", "setup"}) {
		t.Fatalf("unexpected front matter tags %#v", doc.FrontMatter.Tags)
	}
}

func TestLoaderLoadFileToleratesInvalidFrontMatter(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs"})

	doc, err := loader.LoadFile(context.Background(), "guides/broken.md")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.FrontMatter.Title != "" || len(doc.FrontMatter.Tags) != 0 {
		t.Fatalf("expected empty metadata, got %#v", doc.FrontMatter)
	}
	if len(doc.Source) == 0 {
		t.Fatalf("expected source to be kept")
	}
}

func TestLoaderRejectsPathsOutsideBase(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs"})

	if _, err := loader.LoadFile(context.Background(), "../secrets.md"); err == nil {
		t.Fatalf("expected error for path outside base directory")
	}
	if _, err := loader.LoadFile(context.Background(), "missing.md"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "docs", Recursive: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.LoadDirectory(ctx, "."); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestParseFrontMatterWithoutBlock(t *testing.T) {
	meta, body, err := ParseFrontMatter([]byte("plain body"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if meta.Title != "" || string(body) != "plain body" {
		t.Fatalf("unexpected result: meta=%#v body=%q", meta, body)
	}
}
