package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

const (
	frontMatterDelimiter = "---"
	// orderedListPlaceholder stands in for "# " list markers until headings
	// have been rewritten, so list items never turn into h1 headings.
	orderedListPlaceholder = "\uE000"
	wikiListMarker         = "# "
)

var (
	tagSectionPattern    = regexp.MustCompile(`(?m)^--------------TAGS-----------------\s*`)
	imagePattern         = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	wikiLinkLabelPattern = regexp.MustCompile(`\[\[([^\[\]|]*)\|([^\[\]]*)\]\]`)
	wikiLinkPattern      = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)
	tagPattern           = regexp.MustCompile(`(^|\s)#([^\s#]\S*)`)
	orderedListPattern   = regexp.MustCompile(`(?m)^\d+\.[ \t]`)
	headingPattern       = regexp.MustCompile(`(?m)^(#+)[ \t]*(.*)$`)
	linkPattern          = regexp.MustCompile(`\[([^\]!]+)\]\(([^)]+)\)`)
	embedPattern         = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	pageNameStrip        = regexp.MustCompile(`[^\p{L}\p{N}_\s()]`)
)

// ConvertWiki runs the wiki markup passes over markdown. Pass order matters:
// later passes rely on earlier ones having consumed their syntax.
func ConvertWiki(markdown string, opts interfaces.ConvertOptions) interfaces.ConversionResult {
	acc := &collector{}

	content := StripFrontMatter(markdown)
	content = StripTagSection(content)
	content = acc.rewriteImages(content)
	content = RewriteWikiLinks(content, opts.BaseURL, opts.SpaceKey)
	content = acc.extractTags(content)
	content = orderedListPattern.ReplaceAllString(content, orderedListPlaceholder)
	content = rewriteHeadings(content)
	content = strings.ReplaceAll(content, orderedListPlaceholder, wikiListMarker)
	content = rewriteLinks(content)
	content = acc.rewriteEmbeds(content)
	content = acc.rewriteImages(content)

	return interfaces.ConversionResult{
		Markup: content,
		Images: acc.images,
		Tags:   acc.tags,
	}
}

// StripFrontMatter drops a leading block opened by "---" and closed by the next
// "---". The remainder is trimmed. Text without a closing delimiter is returned
// unchanged.
func StripFrontMatter(content string) string {
	if !strings.HasPrefix(content, frontMatterDelimiter) {
		return content
	}
	rest := content[len(frontMatterDelimiter):]
	end := strings.Index(rest, frontMatterDelimiter)
	if end == -1 {
		return content
	}
	return strings.TrimSpace(rest[end+len(frontMatterDelimiter):])
}

// StripTagSection removes the dashed TAGS marker line that introduces the
// trailing tag section of a note.
func StripTagSection(content string) string {
	return tagSectionPattern.ReplaceAllString(content, "")
}

// RewriteWikiLinks turns [[Page|Label]] and [[Page]] into wiki links pointing at
// {baseURL}/display/{spaceKey}/{page}. Embeds (![[...]]) are left alone.
func RewriteWikiLinks(content, baseURL, spaceKey string) string {
	content = replaceUnlessBang(wikiLinkLabelPattern, content, func(groups []string) string {
		return "[" + groups[2] + "|" + PageURL(baseURL, spaceKey, groups[1]) + "]"
	})
	return replaceUnlessBang(wikiLinkPattern, content, func(groups []string) string {
		return "[" + groups[1] + "|" + PageURL(baseURL, spaceKey, groups[1]) + "]"
	})
}

// PageURL builds the display URL of a page title.
func PageURL(baseURL, spaceKey, page string) string {
	return strings.TrimRight(baseURL, "/") + "/display/" + spaceKey + "/" + SanitizePageName(page)
}

// SanitizePageName keeps letters, digits, underscores, whitespace and
// parentheses, then encodes spaces as "+".
func SanitizePageName(name string) string {
	return strings.ReplaceAll(pageNameStrip.ReplaceAllString(name, ""), " ", "+")
}

func rewriteHeadings(content string) string {
	return headingPattern.ReplaceAllStringFunc(content, func(line string) string {
		groups := headingPattern.FindStringSubmatch(line)
		level, text := len(groups[1]), groups[2]
		if level > 6 {
			return text
		}
		return "h" + strconv.Itoa(level) + ". " + text
	})
}

func rewriteLinks(content string) string {
	return replaceUnlessBang(linkPattern, content, func(groups []string) string {
		return "[" + groups[1] + "|" + groups[2] + "]"
	})
}

type collector struct {
	images []string
	tags   []string
}

// rewriteImages turns ![alt](target) into !target|alt=alt! (or !target! for an
// empty alt) and records target.
func (c *collector) rewriteImages(content string) string {
	return imagePattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := imagePattern.FindStringSubmatch(match)
		alt, target := groups[1], groups[2]
		c.images = append(c.images, target)
		if alt == "" {
			return "!" + target + "!"
		}
		return "!" + target + "|alt=" + alt + "!"
	})
}

func (c *collector) rewriteEmbeds(content string) string {
	return embedPattern.ReplaceAllStringFunc(content, func(match string) string {
		target := embedPattern.FindStringSubmatch(match)[1]
		c.images = append(c.images, target)
		return "!" + target + "!"
	})
}

// extractTags records every #tag and removes it, keeping the whitespace that
// preceded it.
func (c *collector) extractTags(content string) string {
	return tagPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := tagPattern.FindStringSubmatch(match)
		c.tags = append(c.tags, groups[2])
		return groups[1]
	})
}

// replaceUnlessBang replaces every match of re whose first byte is not
// preceded by "!", leaving image syntax intact.
func replaceUnlessBang(re *regexp.Regexp, content string, replace func(groups []string) string) string {
	indexes := re.FindAllStringSubmatchIndex(content, -1)
	if len(indexes) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, loc := range indexes {
		start, end := loc[0], loc[1]
		b.WriteString(content[last:start])
		if start > 0 && content[start-1] == '!' {
			b.WriteString(content[start:end])
		} else {
			b.WriteString(replace(submatches(content, loc)))
		}
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

func submatches(content string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = content[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}
