// Package registry keeps an append-only history of processed conversion
// requests in SQLite. History is observability only: stored rows never feed
// back into the pipeline, so every request is still validated, rendered and
// converted from scratch.
package registry

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pagemark/pagemark/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

// Outcome values for a history record.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Record is one processed request.
type Record struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	Title        string    `json:"title,omitempty"`
	RenderStatus int       `json:"render_status,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	CharCount    int       `json:"char_count,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registry wraps the conversions table.
type Registry struct {
	db     *sql.DB
	logger logging.Logger
}

// New runs the schema migration and returns a Registry.
func New(db *sql.DB, logger logging.Logger) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("reading schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("executing schema: %w", err)
	}

	return &Registry{
		db:     db,
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "registry"}),
	}, nil
}

// Append stores rec, filling in ID and CreatedAt when empty.
func (r *Registry) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversions
			(id, url, final_url, title, render_status, outcome, error_kind, char_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.FinalURL, rec.Title, rec.RenderStatus,
		rec.Outcome, rec.ErrorKind, rec.CharCount, rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting conversion record: %w", err)
	}

	r.logger.Debug("recorded conversion",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "outcome", Value: rec.Outcome})
	return nil
}

// List returns the most recent records, newest first. limit <= 0 defaults
// to 50.
func (r *Registry) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, final_url, title, render_status, outcome, error_kind, char_count, duration_ms, created_at
		FROM conversions
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(
			&rec.ID, &rec.URL, &rec.FinalURL, &rec.Title, &rec.RenderStatus,
			&rec.Outcome, &rec.ErrorKind, &rec.CharCount, &rec.DurationMs, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning conversion record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
