package renderer

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a render failure. Timeout and NetworkFailure are
// transient and reasonable to retry from the caller's side; OversizedResponse
// is not.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindNetworkFailure    Kind = "network_failure"
	KindOversizedResponse Kind = "oversized_response"
)

// RenderError wraps any failure from a renderer backend.
type RenderError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("render %s: %s", e.URL, e.Kind)
}

func (e *RenderError) Unwrap() error { return e.Err }

// wrapErr maps a raw backend error onto a RenderError, treating context
// deadline expiry as a timeout and everything else as a network failure.
func wrapErr(url string, err error) *RenderError {
	kind := KindNetworkFailure
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &RenderError{Kind: kind, URL: url, Err: err}
}

func oversizedErr(url string, limit int64) *RenderError {
	return &RenderError{
		Kind: KindOversizedResponse,
		URL:  url,
		Err:  fmt.Errorf("response body exceeds %d bytes", limit),
	}
}
