// Package renderer turns a validated URL into a rendered HTML snapshot.
// Two backends exist: "chromedp" drives a headless Chrome and captures the
// DOM after the network goes idle, "nethttp" does a plain HTTP fetch for
// pages that need no script execution. Backends register themselves with the
// factory in register.go.
package renderer

import (
	"context"
	"net/netip"
	"net/url"
	"time"
)

// Request carries everything a backend needs for one page load. The pinned
// addresses come from gatekeeper validation; backends that can honor them
// must connect there instead of re-resolving the hostname.
type Request struct {
	URL *url.URL

	// PinnedAddrs are the addresses resolved at validation time. May be
	// empty when the caller skipped validation (tests only).
	PinnedAddrs []netip.Addr
}

// Result is one rendered page. FinalURL reflects any redirects the page went
// through and is the base for relative-reference resolution downstream.
type Result struct {
	HTML       string
	FinalURL   *url.URL
	StatusCode int
	FetchedAt  time.Time
}

// Renderer is implemented by every backend.
type Renderer interface {
	Render(ctx context.Context, req *Request) (*Result, error)

	Close() error
}
