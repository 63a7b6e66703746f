// Package markdown loads Markdown documents from disk and converts them into
// the Confluence wiki markup dialect (or, optionally, the XHTML storage
// format). Conversion is a fixed sequence of text passes with no shared parser
// state; the package performs no network I/O.
package markdown
