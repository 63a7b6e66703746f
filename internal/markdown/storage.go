package markdown

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// convertStorage renders markdown as Confluence storage XHTML. Wiki links,
// embeds and tags are handled with the same text passes as the wiki dialect;
// everything else is left to goldmark. Images become attachment references.
func convertStorage(markdown string, opts interfaces.ConvertOptions, extensions []string) interfaces.ConversionResult {
	acc := &collector{}

	content := StripFrontMatter(markdown)
	content = StripTagSection(content)
	content = embedPattern.ReplaceAllString(content, "![]($1)")
	content = replaceUnlessBang(wikiLinkLabelPattern, content, func(groups []string) string {
		return "[" + groups[2] + "](" + PageURL(opts.BaseURL, opts.SpaceKey, groups[1]) + ")"
	})
	content = replaceUnlessBang(wikiLinkPattern, content, func(groups []string) string {
		return "[" + groups[1] + "](" + PageURL(opts.BaseURL, opts.SpaceKey, groups[1]) + ")"
	})
	content = acc.extractTags(content)

	var buf bytes.Buffer
	if err := newStorageEngine(acc, extensions).Convert([]byte(content), &buf); err != nil {
		// goldmark only fails when the writer fails, bytes.Buffer never does
		return interfaces.ConversionResult{Markup: content, Images: acc.images, Tags: acc.tags}
	}

	return interfaces.ConversionResult{
		Markup: buf.String(),
		Images: acc.images,
		Tags:   acc.tags,
	}
}

func newStorageEngine(acc *collector, extensions []string) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(collectExtensions(extensions)...),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&attachmentImageRenderer{acc: acc}, 100)),
		),
	)
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
			seen[key] = struct{}{}
		}
	}
	return extenders
}

// attachmentImageRenderer emits <ac:image> macros: local targets reference a
// page attachment by file name, remote targets are linked by URL.
type attachmentImageRenderer struct {
	acc *collector
}

func (r *attachmentImageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *attachmentImageRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	img, ok := node.(*ast.Image)
	if !ok {
		return ast.WalkContinue, nil
	}

	target := string(img.Destination)
	r.acc.images = append(r.acc.images, target)

	_, _ = w.WriteString("<ac:image")
	if alt := img.Text(source); len(alt) > 0 {
		_, _ = w.WriteString(` ac:alt="`)
		_, _ = w.Write(util.EscapeHTML(alt))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	if IsRemoteTarget(target) {
		_, _ = w.WriteString(`<ri:url ri:value="`)
		_, _ = w.Write(util.EscapeHTML(img.Destination))
	} else {
		_, _ = w.WriteString(`<ri:attachment ri:filename="`)
		_, _ = w.Write(util.EscapeHTML([]byte(path.Base(target))))
	}
	_, _ = w.WriteString(`" /></ac:image>`)
	return ast.WalkSkipChildren, nil
}

// IsRemoteTarget reports whether an image target points outside the local
// image directory.
func IsRemoteTarget(target string) bool {
	lower := strings.ToLower(strings.TrimSpace(target))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}
