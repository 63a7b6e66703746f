package interfaces

import "context"

// Representation names the body format sent to the remote service.
type Representation string

const (
	// RepresentationWiki is the Confluence wiki markup dialect (h1., [text|url], !img!).
	RepresentationWiki Representation = "wiki"
	// RepresentationStorage is the XHTML based storage format.
	RepresentationStorage Representation = "storage"
)

// MarkdownConverter turns Markdown text into the target markup. Implementations
// must be pure: the same input always yields the same result and no I/O happens.
type MarkdownConverter interface {
	Convert(markdown string, opts ConvertOptions) ConversionResult
}

// ConvertOptions carries the values wiki links are resolved against.
type ConvertOptions struct {
	BaseURL  string
	SpaceKey string
}

// ConversionResult is the output of a single conversion run.
type ConversionResult struct {
	// Markup is the converted body.
	Markup string
	// Images lists image targets in the order they were rewritten. Duplicates are kept.
	Images []string
	// Tags lists inline #tags in order of first appearance. Duplicates are kept,
	// the label endpoint tolerates them.
	Tags []string
}

// DocumentLoader discovers and reads Markdown documents below a base directory.
type DocumentLoader interface {
	LoadFile(ctx context.Context, path string) (*Document, error)
	LoadDirectory(ctx context.Context, dir string) ([]*Document, error)
}

// Document is a Markdown file on disk together with the values derived from its path.
type Document struct {
	// FilePath is slash separated and relative to the base directory.
	FilePath string
	// Title is the file name without extension.
	Title string
	// Folder is the directory of FilePath relative to the base directory, empty for root files.
	Folder      string
	Source      []byte
	FrontMatter FrontMatter
	// Checksum stores the SHA-256 digest of Source.
	Checksum []byte
}

// FrontMatter holds the metadata block at the top of a document, when present
// and parseable. The block is stripped from the body either way.
type FrontMatter struct {
	Title  string         `yaml:"title" json:"title"`
	Tags   []string       `yaml:"tags" json:"tags"`
	Custom map[string]any `yaml:",inline" json:"custom"`
}
