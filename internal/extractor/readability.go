package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pagemark/pagemark/internal/logging"
)

// Readability delegates selection to go-shiori's port of the Mozilla
// readability algorithm. It rebuilds a fresh document from the simplified
// article HTML, so the returned candidate does not alias the input document.
type Readability struct {
	cfg    Config
	logger logging.Logger
}

// NewReadability creates the readability strategy.
func NewReadability(cfg Config, logger logging.Logger) *Readability {
	return &Readability{
		cfg:    cfg,
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "extractor_readability"}),
	}
}

func (r *Readability) Select(doc *goquery.Document, pageURL *url.URL) (*Candidate, error) {
	raw, err := doc.Html()
	if err != nil {
		return nil, noContentErr("serializing document: %v", err)
	}

	article, err := readability.FromReader(strings.NewReader(raw), pageURL)
	if err != nil {
		return nil, noContentErr("readability: %v", err)
	}

	textLen := len(collapseSpace(article.TextContent))
	if textLen == 0 || strings.TrimSpace(article.Content) == "" {
		return nil, noContentErr("document has no extractable text")
	}

	contentDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, noContentErr("parsing readability output: %v", err)
	}

	r.logger.Debug("readability selected content",
		logging.Field{Key: "text_len", Value: textLen},
		logging.Field{Key: "title", Value: article.Title})

	return &Candidate{
		Selection: contentDoc.Find("body").First(),
		TextLen:   textLen,
		Tag:       "body",
	}, nil
}
