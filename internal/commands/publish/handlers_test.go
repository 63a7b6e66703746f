package publishcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-md2confluence/internal/markdown"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

type stubLoader struct {
	docs    []*interfaces.Document
	err     error
	gotPath string
	gotDir  string
}

func (l *stubLoader) LoadFile(_ context.Context, path string) (*interfaces.Document, error) {
	l.gotPath = path
	if l.err != nil {
		return nil, l.err
	}
	return l.docs[0], nil
}

func (l *stubLoader) LoadDirectory(_ context.Context, dir string) ([]*interfaces.Document, error) {
	l.gotDir = dir
	return l.docs, l.err
}

type stubPublisher struct {
	publisher.Service
	failures map[string]error
	seen     []string
}

func (p *stubPublisher) PublishAll(_ context.Context, docs []*interfaces.Document) publisher.RunSummary {
	summary := publisher.RunSummary{}
	for _, doc := range docs {
		p.seen = append(p.seen, doc.FilePath)
		res := publisher.DocumentResult{FilePath: doc.FilePath, Title: doc.Title}
		if err := p.failures[doc.FilePath]; err != nil {
			res.Err = err
			summary.Failed++
		} else {
			res.Result = &publisher.PublishResult{Created: true}
			summary.Created++
		}
		summary.Total++
		summary.Results = append(summary.Results, res)
	}
	return summary
}

func TestPublishDirectoryHandlerPublishesAll(t *testing.T) {
	loader := &stubLoader{docs: []*interfaces.Document{
		markdown.BuildDocument("a.md", []byte("# A")),
		markdown.BuildDocument("guides/b.md", []byte("# B")),
	}}
	pub := &stubPublisher{}
	handler := NewPublishDirectoryHandler(loader, pub, nil)

	var summary publisher.RunSummary
	err := handler.Execute(context.Background(), PublishDirectoryCommand{
		Directory:      ".",
		ResultCallback: func(s publisher.RunSummary) { summary = s },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if loader.gotDir != "." || len(pub.seen) != 2 {
		t.Fatalf("unexpected calls dir=%q seen=%v", loader.gotDir, pub.seen)
	}
	if summary.Created != 2 {
		t.Fatalf("expected summary with two created pages, got %+v", summary)
	}
}

func TestPublishDirectoryHandlerReportsFailures(t *testing.T) {
	loader := &stubLoader{docs: []*interfaces.Document{
		markdown.BuildDocument("a.md", []byte("# A")),
		markdown.BuildDocument("b.md", []byte("# B")),
	}}
	pub := &stubPublisher{failures: map[string]error{"a.md": errors.New("remote down")}}
	handler := NewPublishDirectoryHandler(loader, pub, nil)

	var summary publisher.RunSummary
	err := handler.Execute(context.Background(), PublishDirectoryCommand{
		Directory:      ".",
		ResultCallback: func(s publisher.RunSummary) { summary = s },
	})
	if !errors.Is(err, ErrDocumentsFailed) {
		t.Fatalf("expected ErrDocumentsFailed, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(pub.seen) != 2 || summary.Failed != 1 {
		t.Fatalf("expected the run to continue past the failure, seen=%v summary=%+v", pub.seen, summary)
	}
}

func TestPublishFileHandlerLoadsSingleFile(t *testing.T) {
	loader := &stubLoader{docs: []*interfaces.Document{markdown.BuildDocument("guides/setup.md", []byte("# Setup"))}}
	pub := &stubPublisher{}
	handler := NewPublishFileHandler(loader, pub, nil)

	if err := handler.Execute(context.Background(), PublishFileCommand{Path: "guides/setup.md"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if loader.gotPath != "guides/setup.md" || len(pub.seen) != 1 {
		t.Fatalf("unexpected calls path=%q seen=%v", loader.gotPath, pub.seen)
	}
}

func TestPublishFileHandlerLoadFailure(t *testing.T) {
	loader := &stubLoader{err: errors.New("no such file")}
	pub := &stubPublisher{}
	handler := NewPublishFileHandler(loader, pub, nil)

	var summary publisher.RunSummary
	err := handler.Execute(context.Background(), PublishFileCommand{
		Path:           "missing.md",
		ResultCallback: func(s publisher.RunSummary) { summary = s },
	})
	if err == nil {
		t.Fatal("expected load error")
	}
	if len(pub.seen) != 0 || summary.Failed != 1 {
		t.Fatalf("expected no publish and one failure, seen=%v summary=%+v", pub.seen, summary)
	}
}

func TestPublishFileHandlerRejectsInvalidMessage(t *testing.T) {
	handler := NewPublishFileHandler(&stubLoader{}, &stubPublisher{}, nil)
	err := handler.Execute(context.Background(), PublishFileCommand{Path: "notes.txt"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}
