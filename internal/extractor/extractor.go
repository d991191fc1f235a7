// Package extractor picks the subtree of a rendered document most likely to
// be the primary human-readable content. The default strategy prunes page
// chrome first, then scores the remaining block-level candidates with a
// deterministic pipeline of weighted scorers. A readability strategy backed
// by go-shiori/go-readability can be selected instead.
package extractor

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagemark/pagemark/internal/logging"
)

// Candidate is the selected content subtree plus the signals that won it the
// selection. It borrows nodes from the document it was selected from and
// must not outlive it.
type Candidate struct {
	Selection *goquery.Selection
	Score     float64
	TextLen   int
	Depth     int
	Tag       string
}

// Strategy selects a content candidate from a parsed document. The page URL
// is the final post-redirect URL; strategies may use it for context.
type Strategy interface {
	Select(doc *goquery.Document, pageURL *url.URL) (*Candidate, error)
}

// StrategyConstructor builds a Strategy from config and logger.
type StrategyConstructor func(cfg Config, logger logging.Logger) (Strategy, error)

var (
	mu         sync.RWMutex
	strategies = map[string]StrategyConstructor{}
)

// RegisterStrategy registers a named selection strategy.
func RegisterStrategy(name string, ctor StrategyConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	strategies[strings.ToLower(name)] = ctor
}

// RegisterDefaultStrategies registers heuristic and readability.
func RegisterDefaultStrategies() {
	RegisterStrategy("heuristic", func(cfg Config, logger logging.Logger) (Strategy, error) {
		return NewHeuristic(cfg, logger), nil
	})
	RegisterStrategy("readability", func(cfg Config, logger logging.Logger) (Strategy, error) {
		return NewReadability(cfg, logger), nil
	})
}

// New constructs the configured strategy.
func New(cfg Config, logger logging.Logger) (Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Strategy))
	if name == "" {
		name = "heuristic"
	}
	mu.RLock()
	ctor, ok := strategies[name]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("extractor strategy %q not registered", name)
	}
	return ctor(cfg, logger)
}

// Heuristic is the default scoring strategy.
type Heuristic struct {
	cfg    Config
	logger logging.Logger
}

// NewHeuristic creates the scoring strategy.
func NewHeuristic(cfg Config, logger logging.Logger) *Heuristic {
	return &Heuristic{
		cfg:    cfg,
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "extractor"}),
	}
}

// Select prunes doc in place, scores every block-level candidate and returns
// the winner. Ties break toward the shallower candidate, then document
// order. A winner with too little text falls back to the whole pruned body;
// a body with no text at all is an ExtractionError.
func (h *Heuristic) Select(doc *goquery.Document, _ *url.URL) (*Candidate, error) {
	prune(doc)

	var best *Candidate
	doc.Find("article, main, section, div").Each(func(_ int, s *goquery.Selection) {
		st := collectStats(s)
		if st.textLen == 0 {
			return
		}
		c := &Candidate{
			Selection: s,
			Score:     score(st, h.cfg.Weights),
			TextLen:   st.textLen,
			Depth:     st.depth,
			Tag:       st.tag,
		}
		if best == nil || c.Score > best.Score ||
			(c.Score == best.Score && c.Depth < best.Depth) {
			best = c
		}
	})

	if best != nil && best.TextLen >= h.cfg.MinContentLength {
		h.logger.Debug("selected candidate",
			logging.Field{Key: "tag", Value: best.Tag},
			logging.Field{Key: "score", Value: best.Score},
			logging.Field{Key: "text_len", Value: best.TextLen})
		return best, nil
	}

	// Too little content to trust the scorer: use the pruned body instead
	// of failing, unless the body itself is empty.
	body := doc.Find("body").First()
	bodyText := collapseSpace(body.Text())
	if len(bodyText) == 0 {
		return nil, noContentErr("document has no extractable text")
	}

	h.logger.Debug("falling back to pruned body",
		logging.Field{Key: "text_len", Value: len(bodyText)})

	return &Candidate{
		Selection: body,
		TextLen:   len(bodyText),
		Tag:       "body",
	}, nil
}

// Title extracts the document title from <title>, falling back to the first
// <h1>. Returns "" when neither exists.
func Title(doc *goquery.Document) string {
	if t := collapseSpace(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	return collapseSpace(doc.Find("h1").First().Text())
}
