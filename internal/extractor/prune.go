package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tags removed outright before scoring. Anything pruned here can never win
// selection.
var prunedTags = []string{
	"script", "style", "noscript", "template", "meta", "link",
	"nav", "header", "footer", "aside",
	"form", "button", "input", "select", "textarea",
}

// Class/id tokens that mark page chrome rather than content. Grounded in the
// usual CMS markup conventions; matched against whole tokens only so
// "menu" does not take out "document".
var prunedTokens = map[string]struct{}{
	"nav": {}, "navbar": {}, "navigation": {}, "menu": {},
	"sidebar": {}, "side-bar": {}, "widget": {},
	"advertisement": {}, "ads": {}, "ad": {},
	"social": {}, "share": {}, "sharing": {},
	"comments": {}, "comment-section": {},
	"breadcrumb": {}, "breadcrumbs": {},
	"pagination": {}, "pager": {},
	"popup": {}, "modal": {}, "overlay": {}, "cookie-banner": {},
}

// prune strips structurally irrelevant nodes from doc in place: scripts and
// styles, HTML comments, inline-hidden elements, landmark chrome and
// known chrome class/id tokens.
func prune(doc *goquery.Document) {
	removeComments(doc)

	doc.Find(strings.Join(prunedTags, ", ")).Remove()

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if isInlineHidden(s.AttrOr("style", "")) {
			s.Remove()
		}
	})

	doc.Find("[hidden], [aria-hidden=true]").Remove()

	doc.Find("div, section, ul, ol, span, p").Each(func(_ int, s *goquery.Selection) {
		if hasPrunedToken(s) {
			s.Remove()
		}
	})
}

func removeComments(doc *goquery.Document) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			if c.Type == html.CommentNode {
				n.RemoveChild(c)
			} else {
				walk(c)
			}
			c = next
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
}

// isInlineHidden detects display:none / visibility:hidden in an inline style
// attribute, tolerating whitespace around the colon.
func isInlineHidden(style string) bool {
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func hasPrunedToken(s *goquery.Selection) bool {
	for _, token := range attrTokens(s) {
		if _, ok := prunedTokens[token]; ok {
			return true
		}
	}
	return false
}

// attrTokens splits the element's id and class attributes into lower-case
// tokens on whitespace and underscores. Hyphenated names stay whole.
func attrTokens(s *goquery.Selection) []string {
	raw := s.AttrOr("id", "") + " " + s.AttrOr("class", "")
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '_'
	})
	return fields
}
