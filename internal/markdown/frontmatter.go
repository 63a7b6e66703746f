package markdown

import (
	"bytes"
	"fmt"
	"maps"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// ParseFrontMatter decodes the metadata block at the top of source and returns
// it with the remaining body. Sources without a block yield empty metadata and
// the full source as body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return interfaces.FrontMatter{
		Title:  meta.Title,
		Tags:   compactTags(meta.Tags),
		Custom: maps.Clone(meta.Custom),
	}, body, nil
}

type frontMatterEnvelope struct {
	Title  string         `yaml:"title" toml:"title" json:"title"`
	Tags   []string       `yaml:"tags" toml:"tags" json:"tags"`
	Custom map[string]any `yaml:",inline"`
}

// compactTags drops blank entries and a leading "#" so front matter tags line
// up with inline #tags.
func compactTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = trimTag(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func trimTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}
