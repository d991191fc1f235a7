package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Vocabulary of tokens that signal content when found in a tag name, id or
// class, and tokens that signal chrome. Matching is whole-token.
var (
	positiveTokens = map[string]struct{}{
		"content": {}, "article": {}, "post": {}, "main": {},
		"entry": {}, "story": {}, "text": {}, "body": {},
	}
	negativeTokens = map[string]struct{}{
		"sidebar": {}, "comment": {}, "ad": {}, "ads": {},
		"nav": {}, "menu": {}, "footer": {}, "header": {},
		"related": {}, "promo": {}, "banner": {},
	}
)

// blockTags are the child elements counted as structural content blocks.
var blockTags = map[string]struct{}{
	"p": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"ul": {}, "ol": {}, "pre": {}, "blockquote": {}, "table": {}, "figure": {},
}

// stats holds the raw signals one candidate exposes to the scorers.
type stats struct {
	tag           string
	tokens        []string
	textLen       int
	linkTextLen   int
	blockChildren int
	inlineNoise   int
	depth         int
}

// collectStats measures a candidate subtree. Text lengths are measured on
// whitespace-collapsed text so formatting never inflates a score.
func collectStats(s *goquery.Selection) stats {
	st := stats{
		tag:     goquery.NodeName(s),
		tokens:  attrTokens(s),
		textLen: len(collapseSpace(s.Text())),
		depth:   s.Parents().Length(),
	}
	st.linkTextLen = len(collapseSpace(s.Find("a").Text()))
	s.Children().Each(func(_ int, child *goquery.Selection) {
		if _, ok := blockTags[goquery.NodeName(child)]; ok {
			st.blockChildren++
		} else {
			st.inlineNoise++
		}
	})
	return st
}

// textDensityScore rewards visible, non-link text. Link text counts double
// against the candidate: dense link text is the signature of a menu.
func textDensityScore(st stats) float64 {
	score := float64(st.textLen - 2*st.linkTextLen)
	if score < 0 {
		return 0
	}
	return score
}

// vocabularyScore scores the tag name and id/class tokens against the
// curated vocabulary. Semantic tags count as a positive token themselves.
func vocabularyScore(st stats) float64 {
	var score float64
	if st.tag == "article" || st.tag == "main" {
		score++
	}
	for _, token := range st.tokens {
		if _, ok := positiveTokens[token]; ok {
			score++
		}
		if _, ok := negativeTokens[token]; ok {
			score--
		}
	}
	return score
}

// structureScore compares block-level children against inline noise.
func structureScore(st stats) float64 {
	return float64(st.blockChildren) - 0.5*float64(st.inlineNoise)
}

// score combines the independent scorers by weighted sum.
func score(st stats, w Weights) float64 {
	return w.TextDensity*textDensityScore(st) +
		w.Vocabulary*vocabularyScore(st) +
		w.Structure*structureScore(st)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
