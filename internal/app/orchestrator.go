// Package app sequences the conversion pipeline: gatekeeper validation,
// page rendering, content selection and Markdown conversion. Each request is
// independent; the orchestrator holds no mutable cross-request state beyond
// the read-only configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/pagemark/pagemark/internal/converter"
	"github.com/pagemark/pagemark/internal/extractor"
	"github.com/pagemark/pagemark/internal/gatekeeper"
	"github.com/pagemark/pagemark/internal/logging"
	"github.com/pagemark/pagemark/internal/registry"
	"github.com/pagemark/pagemark/internal/renderer"
)

// Stage identifies a completed pipeline stage for progress streaming.
type Stage string

const (
	StageValidated Stage = "validated"
	StageRendered  Stage = "rendered"
	StageSelected  Stage = "selected"
	StageConverted Stage = "converted"
)

// StageEvent is emitted after each stage when processing with events.
type StageEvent struct {
	RequestID string    `json:"request_id"`
	Stage     Stage     `json:"stage"`
	At        time.Time `json:"at"`
}

// Result is a successful conversion.
type Result struct {
	RequestID    string        `json:"request_id"`
	Markdown     string        `json:"markdown"`
	Title        string        `json:"title,omitempty"`
	SourceURL    string        `json:"source_url"`
	FinalURL     string        `json:"final_url"`
	RenderStatus int           `json:"render_status"`
	CharCount    int           `json:"char_count"`
	Duration     time.Duration `json:"-"`
}

// Orchestrator ties the pipeline stages together.
type Orchestrator struct {
	cfg       *Config
	gate      *gatekeeper.Gatekeeper
	renderer  renderer.Renderer
	selector  extractor.Strategy
	converter *converter.Converter
	history   *registry.Registry
	logger    logging.Logger
}

// NewOrchestrator builds the pipeline from cfg. The renderer is injected so
// tests can stub the external browser; history may be nil to disable
// recording.
func NewOrchestrator(cfg *Config, rend renderer.Renderer, history *registry.Registry, logger logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if rend == nil {
		return nil, errors.New("renderer is required")
	}
	logger = logging.OrNop(logger)

	selector, err := extractor.New(cfg.Extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}

	return &Orchestrator{
		cfg:       cfg,
		gate:      gatekeeper.New(cfg.Gatekeeper, nil, logger),
		renderer:  rend,
		selector:  selector,
		converter: converter.New(logger),
		history:   history,
		logger:    logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}, nil
}

// Process converts rawURL to Markdown, or returns the typed error of the
// stage that failed. No stage is retried: render and extraction failures on
// a remote, possibly adversarial site are surfaced directly and the caller
// decides whether re-issuing the request makes sense.
func (o *Orchestrator) Process(ctx context.Context, rawURL string) (*Result, error) {
	return o.process(ctx, rawURL, nil)
}

// ProcessWithEvents behaves like Process and additionally calls emit after
// every completed stage. emit runs on the request goroutine and must not
// block for long.
func (o *Orchestrator) ProcessWithEvents(ctx context.Context, rawURL string, emit func(StageEvent)) (*Result, error) {
	return o.process(ctx, rawURL, emit)
}

func (o *Orchestrator) process(ctx context.Context, rawURL string, emit func(StageEvent)) (*Result, error) {
	requestID := uuid.NewString()
	start := time.Now()
	logger := o.logger.With(logging.Field{Key: "request_id", Value: requestID})

	notify := func(stage Stage) {
		if emit != nil {
			emit(StageEvent{RequestID: requestID, Stage: stage, At: time.Now()})
		}
	}

	logger.Info("processing url", logging.Field{Key: "url", Value: rawURL})

	validated, err := o.gate.Validate(ctx, rawURL)
	if err != nil {
		logger.Warn("validation rejected", logging.Field{Key: "error", Value: err.Error()})
		o.record(ctx, &registry.Record{
			ID:         requestID,
			URL:        rawURL,
			Outcome:    registry.OutcomeRejected,
			ErrorKind:  errorKind(err),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil, err
	}
	notify(StageValidated)

	// The configured render timeout is enforced here as a context deadline,
	// independent of the backend's own bounds, so a misbehaving backend can
	// never hold a request past it.
	renderCtx := ctx
	if o.cfg.Renderer.Timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, o.cfg.Renderer.Timeout)
		defer cancel()
	}

	rendered, err := o.renderer.Render(renderCtx, &renderer.Request{
		URL:         validated.URL,
		PinnedAddrs: validated.ResolvedAddrs,
	})
	if err != nil {
		logger.Warn("render failed", logging.Field{Key: "error", Value: err.Error()})
		o.record(ctx, &registry.Record{
			ID:         requestID,
			URL:        rawURL,
			Outcome:    registry.OutcomeFailed,
			ErrorKind:  errorKind(err),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil, err
	}
	notify(StageRendered)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered.HTML))
	if err != nil {
		return nil, &converter.ConversionError{Msg: fmt.Sprintf("parsing rendered document: %v", err)}
	}
	title := extractor.Title(doc)

	candidate, err := o.selector.Select(doc, rendered.FinalURL)
	if err != nil {
		logger.Warn("extraction failed", logging.Field{Key: "error", Value: err.Error()})
		o.record(ctx, &registry.Record{
			ID:           requestID,
			URL:          rawURL,
			FinalURL:     rendered.FinalURL.String(),
			Title:        title,
			RenderStatus: rendered.StatusCode,
			Outcome:      registry.OutcomeFailed,
			ErrorKind:    errorKind(err),
			DurationMs:   time.Since(start).Milliseconds(),
		})
		return nil, err
	}
	notify(StageSelected)

	mdoc, err := o.converter.Convert(candidate.Selection, rendered.FinalURL)
	if err != nil {
		logger.Error("conversion failed", logging.Field{Key: "error", Value: err.Error()})
		o.record(ctx, &registry.Record{
			ID:           requestID,
			URL:          rawURL,
			FinalURL:     rendered.FinalURL.String(),
			Title:        title,
			RenderStatus: rendered.StatusCode,
			Outcome:      registry.OutcomeFailed,
			ErrorKind:    errorKind(err),
			DurationMs:   time.Since(start).Milliseconds(),
		})
		return nil, err
	}
	notify(StageConverted)

	result := &Result{
		RequestID:    requestID,
		Markdown:     mdoc.Markdown,
		Title:        title,
		SourceURL:    rawURL,
		FinalURL:     rendered.FinalURL.String(),
		RenderStatus: rendered.StatusCode,
		CharCount:    mdoc.CharCount,
		Duration:     time.Since(start),
	}

	o.record(ctx, &registry.Record{
		ID:           requestID,
		URL:          rawURL,
		FinalURL:     result.FinalURL,
		Title:        title,
		RenderStatus: result.RenderStatus,
		Outcome:      registry.OutcomeSuccess,
		CharCount:    result.CharCount,
		DurationMs:   result.Duration.Milliseconds(),
	})

	logger.Info("converted url",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "final_url", Value: result.FinalURL},
		logging.Field{Key: "chars", Value: result.CharCount},
		logging.Field{Key: "duration_ms", Value: result.Duration.Milliseconds()})

	return result, nil
}

// record appends to history when configured. History failures are logged
// and swallowed: observability must never fail a conversion.
func (o *Orchestrator) record(ctx context.Context, rec *registry.Record) {
	if o.history == nil {
		return
	}
	if err := o.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Warn("recording history", logging.Field{Key: "error", Value: err.Error()})
	}
}

// Close releases the renderer.
func (o *Orchestrator) Close() {
	if o.renderer != nil {
		if err := o.renderer.Close(); err != nil {
			o.logger.Warn("closing renderer", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// errorKind maps a pipeline error to the stable kind string stored in
// history and returned to API clients.
func errorKind(err error) string {
	var secErr *gatekeeper.SecurityError
	if errors.As(err, &secErr) {
		return string(secErr.Kind)
	}
	var renderErr *renderer.RenderError
	if errors.As(err, &renderErr) {
		return string(renderErr.Kind)
	}
	var extractErr *extractor.ExtractionError
	if errors.As(err, &extractErr) {
		return string(extractErr.Kind)
	}
	var convErr *converter.ConversionError
	if errors.As(err, &convErr) {
		return "conversion_failed"
	}
	return "internal"
}
