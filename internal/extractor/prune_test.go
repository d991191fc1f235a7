package extractor

import (
	"strings"
	"testing"
)

func TestPruneRemovesChrome(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<!-- comment that must vanish -->
		<script>var hidden = true;</script>
		<style>.x { color: red }</style>
		<nav>site nav</nav>
		<header>site header</header>
		<footer>site footer</footer>
		<aside>aside chrome</aside>
		<form><input value="q"><button>Go</button></form>
		<div class="cookie-banner">accept cookies</div>
		<ul class="breadcrumbs"><li>Home</li></ul>
		<p>the only real content</p>
	</body></html>`

	doc := parseDoc(t, html)
	prune(doc)

	text := doc.Find("body").Text()
	for _, gone := range []string{
		"comment that must vanish", "var hidden", "color: red",
		"site nav", "site header", "site footer", "aside chrome",
		"accept cookies", "Home",
	} {
		if strings.Contains(text, gone) {
			t.Errorf("pruned document still contains %q", gone)
		}
	}
	if !strings.Contains(text, "the only real content") {
		t.Error("prune removed the content paragraph")
	}
}

func TestIsInlineHidden(t *testing.T) {
	t.Parallel()

	cases := []struct {
		style string
		want  bool
	}{
		{"display:none", true},
		{"display: none", true},
		{"DISPLAY: NONE", true},
		{"visibility:hidden", true},
		{"visibility : hidden", true},
		{"color: red; display: none", true},
		{"display:block", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isInlineHidden(tc.style); got != tc.want {
			t.Errorf("isInlineHidden(%q) = %v, want %v", tc.style, got, tc.want)
		}
	}
}

func TestAttrTokens(t *testing.T) {
	t.Parallel()

	sel := selectionFor(t, `<div id="Main_Wrapper" class="post content-area  extra">x</div>`, "div")
	tokens := attrTokens(sel)

	want := map[string]bool{"main": true, "wrapper": true, "post": true, "content-area": true, "extra": true}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %d entries", tokens, len(want))
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q in %v", tok, tokens)
		}
	}
}
