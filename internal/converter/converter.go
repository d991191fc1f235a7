// Package converter turns a selected HTML subtree into Markdown. The heavy
// lifting is done by JohannesKaufmann/html-to-markdown with GitHub-flavored
// extensions; this package supplies the policy: absolute-URL resolution
// against the final page URL, table-cell flattening, dropping of elements
// with no Markdown equivalent, and blank-line normalization.
package converter

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/pagemark/pagemark/internal/logging"
)

// Document is the conversion output.
type Document struct {
	Markdown  string
	CharCount int
}

// ConversionError covers malformed-tree edge cases. It should not occur as
// long as the selector hands over a well-formed subtree.
type ConversionError struct {
	Msg string
}

func (e *ConversionError) Error() string { return "convert: " + e.Msg }

// excessiveBlankLines matches runs of two-plus blank lines for collapsing.
var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// Elements that have no Markdown equivalent. They are dropped, never
// stringified as raw markup.
var droppedElements = []string{
	"iframe", "object", "embed", "canvas", "svg",
	"audio", "video", "form", "button", "noscript",
}

// Converter converts HTML subtrees to Markdown.
type Converter struct {
	logger logging.Logger
}

// New creates a Converter.
func New(logger logging.Logger) *Converter {
	return &Converter{
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "converter"}),
	}
}

// Convert renders sel as Markdown. base must be the final post-redirect page
// URL; every relative href/src is resolved against it, since the rendered
// page is the only context the pipeline has for relative references.
func (c *Converter) Convert(sel *goquery.Selection, base *url.URL) (*Document, error) {
	if sel == nil || sel.Length() == 0 {
		return nil, &ConversionError{Msg: "empty selection"}
	}
	if base == nil {
		return nil, &ConversionError{Msg: "missing base URL"}
	}

	flattenTableCells(sel)

	// The underlying converter keeps per-run state, so build one per call
	// and close the base URL into the resolver.
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		EmDelimiter:      "*",
		StrongDelimiter:  "**",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		Fence:            "```",
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL string, _ string) string {
			return resolveAgainst(base, rawURL)
		},
	})
	conv.Use(plugin.GitHubFlavored())
	conv.AddRules(md.Rule{
		Filter: droppedElements,
		Replacement: func(_ string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String("")
		},
	})

	markdown := conv.Convert(sel)
	markdown = normalize(markdown)

	c.logger.Debug("converted subtree",
		logging.Field{Key: "chars", Value: len(markdown)})

	return &Document{Markdown: markdown, CharCount: len(markdown)}, nil
}

// resolveAgainst resolves raw against base. Already-absolute URLs, fragment
// references and data URLs pass through untouched.
func resolveAgainst(base *url.URL, raw string) string {
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "data:") {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if ref.IsAbs() {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// flattenTableCells rewrites any table cell whose text spans multiple lines
// into single-line text, so pipe tables stay well-formed.
func flattenTableCells(sel *goquery.Selection) {
	sel.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		text := cell.Text()
		if strings.ContainsAny(text, "\n\r") {
			cell.SetText(strings.Join(strings.Fields(text), " "))
		}
	})
}

// normalize trims the output and collapses runs of blank lines down to one.
func normalize(markdown string) string {
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	markdown = excessiveBlankLines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}
