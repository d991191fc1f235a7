// Package server exposes the conversion pipeline over HTTP: a synchronous
// conversion endpoint returning text/plain Markdown, a websocket variant
// streaming pipeline progress, a conversion history listing and service
// metadata endpoints. Errors use a stable JSON envelope.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pagemark/pagemark/internal/app"
	"github.com/pagemark/pagemark/internal/converter"
	"github.com/pagemark/pagemark/internal/extractor"
	"github.com/pagemark/pagemark/internal/gatekeeper"
	"github.com/pagemark/pagemark/internal/logging"
	"github.com/pagemark/pagemark/internal/registry"
	"github.com/pagemark/pagemark/internal/renderer"

	_ "modernc.org/sqlite" // SQLite driver
)

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	historyDB    *sql.DB
	history      *registry.Registry
}

// NewServer wires config, history storage, renderer backend and
// orchestrator into a ready-to-serve Server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("server")
	}

	renderer.RegisterDefaultBackends()
	extractor.RegisterDefaultStrategies()

	rend, err := renderer.New(cfg.AppConfig.Renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	var historyDB *sql.DB
	var history *registry.Registry
	if cfg.AppConfig.HistoryPath != "" {
		historyDB, err = sql.Open("sqlite", cfg.AppConfig.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		history, err = registry.New(historyDB, logger)
		if err != nil {
			historyDB.Close()
			return nil, fmt.Errorf("creating history registry: %w", err)
		}
	}

	orch, err := app.NewOrchestrator(cfg.AppConfig, rend, history, logger)
	if err != nil {
		if historyDB != nil {
			historyDB.Close()
		}
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		historyDB:    historyDB,
		history:      history,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator.
func (s *Server) Orchestrator() *app.Orchestrator { return s.orchestrator }

func (s *Server) routes() {
	r := s.router

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/target", s.handleConvert)
		r.Get("/history", s.handleHistory)
		r.Get("/ws/target", s.handleConvertWS)
	})

	s.mountSwagger(r)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q.Encode()})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.historyDB != nil {
		s.historyDB.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // conversion responses can be slow to produce
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// errorBody is the stable error envelope.
type errorBody struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: true, Message: msg, StatusCode: status})
}

// mapError translates pipeline errors onto HTTP status codes. Security
// rejections are permanent (400/403) while render failures are transient
// (502) so clients can tell whether a retry has any chance.
func mapError(err error) (int, string) {
	var secErr *gatekeeper.SecurityError
	if errors.As(err, &secErr) {
		switch secErr.Kind {
		case gatekeeper.KindMalformedURL, gatekeeper.KindUnsupportedScheme:
			return http.StatusBadRequest, secErr.Msg
		default:
			return http.StatusForbidden, secErr.Msg
		}
	}

	var renderErr *renderer.RenderError
	if errors.As(err, &renderErr) {
		if renderErr.Kind == renderer.KindOversizedResponse {
			return http.StatusUnprocessableEntity, renderErr.Error()
		}
		return http.StatusBadGateway, renderErr.Error()
	}

	var extractErr *extractor.ExtractionError
	if errors.As(err, &extractErr) {
		return http.StatusInternalServerError, extractErr.Msg
	}

	var convErr *converter.ConversionError
	if errors.As(err, &convErr) {
		return http.StatusInternalServerError, convErr.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}

// --- Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "pagemark",
		"description": "Convert web pages to Markdown",
		"usage": map[string]any{
			"endpoint": "/target",
			"method":   "GET",
			"parameters": map[string]string{
				"url": "Target URL to convert (required)",
			},
			"example": "/target?url=https://example.com",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "pagemark",
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter 'url'")
		return
	}

	result, err := s.orchestrator.Process(r.Context(), rawURL)
	if err != nil {
		status, msg := mapError(err)
		s.logger.Warn("conversion failed",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "status", Value: status},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, status, msg)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Original-URL", result.SourceURL)
	w.Header().Set("X-Final-URL", result.FinalURL)
	if result.Title != "" {
		w.Header().Set("X-Page-Title", result.Title)
	}
	w.Header().Set("X-Render-Status", strconv.Itoa(result.RenderStatus))
	w.Header().Set("X-Content-Length", strconv.Itoa(result.CharCount))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Markdown))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// wsMessage is the envelope for websocket progress frames.
type wsMessage struct {
	Type       string          `json:"type"` // "stage" | "result" | "error"
	Stage      *app.StageEvent `json:"stage,omitempty"`
	Result     *app.Result     `json:"result,omitempty"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
}

func (s *Server) handleConvertWS(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter 'url'")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	result, err := s.orchestrator.ProcessWithEvents(r.Context(), rawURL, func(ev app.StageEvent) {
		_ = conn.WriteJSON(wsMessage{Type: "stage", Stage: &ev})
	})
	if err != nil {
		status, msg := mapError(err)
		_ = conn.WriteJSON(wsMessage{Type: "error", Message: msg, StatusCode: status})
		return
	}

	_ = conn.WriteJSON(wsMessage{Type: "result", Result: result})
}
