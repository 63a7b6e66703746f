package markdown

import (
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Converter implements interfaces.MarkdownConverter for both supported
// representations. A Converter holds no per-call state and is safe to reuse.
type Converter struct {
	representation interfaces.Representation
	extensions     []string
}

// ConverterOption customises a Converter.
type ConverterOption func(*Converter)

// WithRepresentation selects the output format. Unknown values fall back to wiki.
func WithRepresentation(rep interfaces.Representation) ConverterOption {
	return func(c *Converter) {
		switch rep {
		case interfaces.RepresentationStorage:
			c.representation = rep
		default:
			c.representation = interfaces.RepresentationWiki
		}
	}
}

// WithExtensions lists goldmark extensions used by the storage representation.
func WithExtensions(names ...string) ConverterOption {
	return func(c *Converter) {
		c.extensions = append([]string(nil), names...)
	}
}

// NewConverter returns a wiki markup converter unless options say otherwise.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{representation: interfaces.RepresentationWiki}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

var _ interfaces.MarkdownConverter = (*Converter)(nil)

// Representation reports the body format produced by Convert.
func (c *Converter) Representation() interfaces.Representation {
	return c.representation
}

// Convert rewrites markdown into the configured representation and collects
// image targets and inline tags along the way.
func (c *Converter) Convert(markdown string, opts interfaces.ConvertOptions) interfaces.ConversionResult {
	if c.representation == interfaces.RepresentationStorage {
		return convertStorage(markdown, opts, c.extensions)
	}
	return ConvertWiki(markdown, opts)
}
