package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

const defaultPattern = "*.md"

// LoaderConfig configures how Markdown files are discovered within a base directory.
type LoaderConfig struct {
	// BasePath is the root directory documents and folders are resolved against.
	BasePath string
	// Pattern limits discovered files to those matching the glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	Logger    interfaces.Logger
}

// Loader turns files below a base directory into documents.
type Loader struct {
	fs        fs.FS
	basePath  string
	pattern   string
	recursive bool
	logger    interfaces.Logger
}

var _ interfaces.DocumentLoader = (*Loader)(nil)

// NewLoader constructs a Loader over filesystem, which must be rooted at
// cfg.BasePath (os.DirFS(cfg.BasePath) in production, fstest.MapFS in tests).
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = defaultPattern
	}
	return &Loader{
		fs:        filesystem,
		basePath:  filepath.Clean(cfg.BasePath),
		pattern:   pattern,
		recursive: cfg.Recursive,
		logger:    logging.OrNoOp(cfg.Logger),
	}
}

// LoadFile reads a single document. path is relative to the base directory;
// absolute paths below the base directory are accepted too.
func (l *Loader) LoadFile(ctx context.Context, path string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.makeRelative(path)
	if err != nil {
		return nil, err
	}

	source, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}

	doc := BuildDocument(rel, source)
	meta, _, err := ParseFrontMatter(source)
	if err != nil {
		// the converter strips the block textually, so bad metadata only costs the extra labels
		l.logger.Warn("markdown.frontmatter.invalid", "path", rel, "error", err)
	} else {
		doc.FrontMatter = meta
	}
	return doc, nil
}

// LoadDirectory discovers every matching file under dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.makeRelative(dir)
	if err != nil {
		return nil, err
	}

	var docs []*interfaces.Document
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !l.recursive && current != root {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.matchesPattern(current) {
			return nil
		}

		doc, err := l.LoadFile(ctx, current)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})
	l.logger.Debug("markdown.directory.loaded", "directory", root, "count", len(docs))
	return docs, nil
}

func (l *Loader) matchesPattern(file string) bool {
	pattern := filepath.ToSlash(l.pattern)
	target := path.Base(file)
	if strings.Contains(pattern, "/") {
		pattern = strings.ReplaceAll(pattern, "**/", "")
		target = file
	}
	match, err := path.Match(pattern, target)
	return err == nil && match
}

// makeRelative returns a slash separated path usable with fs.FS.
func (l *Loader) makeRelative(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return ".", nil
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		if l.basePath == "" || l.basePath == "." {
			return "", fmt.Errorf("markdown loader: absolute path %s provided without base path", p)
		}
		rel, err := filepath.Rel(l.basePath, clean)
		if err != nil {
			return "", fmt.Errorf("markdown loader: make relative %s: %w", p, err)
		}
		clean = rel
	}
	clean = filepath.ToSlash(clean)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("markdown loader: %s is outside the base directory", p)
	}
	return clean, nil
}

// BuildDocument derives title, folder and checksum from a slash separated
// path relative to the base directory.
func BuildDocument(rel string, source []byte) *interfaces.Document {
	rel = path.Clean(filepath.ToSlash(rel))
	base := path.Base(rel)
	folder := path.Dir(rel)
	if folder == "." {
		folder = ""
	}
	sum := sha256.Sum256(source)

	return &interfaces.Document{
		FilePath: rel,
		Title:    strings.TrimSuffix(base, path.Ext(base)),
		Folder:   folder,
		Source:   source,
		Checksum: sum[:],
	}
}
