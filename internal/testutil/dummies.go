// Package testutil provides shared test doubles for the pipeline packages.
package testutil

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pagemark/pagemark/internal/logging"
	"github.com/pagemark/pagemark/internal/renderer"
)

// DummyLogger records log calls for assertions. Safe for concurrent use.
type DummyLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (l *DummyLogger) log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, msg)
}

func (l *DummyLogger) Debug(msg string, _ ...logging.Field) { l.log(msg) }
func (l *DummyLogger) Info(msg string, _ ...logging.Field)  { l.log(msg) }
func (l *DummyLogger) Warn(msg string, _ ...logging.Field)  { l.log(msg) }
func (l *DummyLogger) Error(msg string, _ ...logging.Field) { l.log(msg) }

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// Recorded returns a copy of the messages logged so far.
func (l *DummyLogger) Recorded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.Messages))
	copy(out, l.Messages)
	return out
}

// StubRenderer returns canned HTML without touching the network and counts
// how often it was asked to render.
type StubRenderer struct {
	HTML       string
	StatusCode int
	FinalURL   *url.URL
	Err        error
	Delay      time.Duration

	calls atomic.Int64
}

func (r *StubRenderer) Render(ctx context.Context, req *renderer.Request) (*renderer.Result, error) {
	r.calls.Add(1)

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.Err != nil {
		return nil, r.Err
	}

	final := r.FinalURL
	if final == nil {
		final = req.URL
	}
	status := r.StatusCode
	if status == 0 {
		status = 200
	}

	return &renderer.Result{
		HTML:       r.HTML,
		FinalURL:   final,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (r *StubRenderer) Close() error { return nil }

// Calls reports how many times Render was invoked.
func (r *StubRenderer) Calls() int64 { return r.calls.Load() }
