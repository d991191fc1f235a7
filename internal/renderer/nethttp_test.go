package renderer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = "nethttp"
	cfg.Timeout = 5 * time.Second
	return cfg
}

// allowAllRedirects lets tests follow redirects into the loopback fixture,
// which the default policy refuses.
func allowAllRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= redirectMaxHops {
		return errors.New("too many redirects")
	}
	return nil
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}
	return u
}

func TestNetHTTPRenderFetchesHTML(t *testing.T) {
	t.Parallel()

	const page = "<html><head><title>T</title></head><body><p>hello</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	r, err := NewNetHTTP(testConfig(), nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	r.RedirectPolicy = allowAllRedirects

	result, err := r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL)})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.HTML != page {
		t.Errorf("HTML = %q, want the served page", result.HTML)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.FinalURL.String() != srv.URL {
		t.Errorf("FinalURL = %s, want %s", result.FinalURL, srv.URL)
	}
	if result.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
}

func TestNetHTTPRenderFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>done</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r, err := NewNetHTTP(testConfig(), nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	r.RedirectPolicy = allowAllRedirects

	result, err := r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL+"/start")})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasSuffix(result.FinalURL.Path, "/final") {
		t.Errorf("FinalURL = %s, want .../final", result.FinalURL)
	}
}

func TestNetHTTPRenderRejectsOversized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>" + strings.Repeat("x", 4096) + "</html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxContentSize = 1024

	r, err := NewNetHTTP(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	r.RedirectPolicy = allowAllRedirects

	_, err = r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL)})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render = %v, want *RenderError", err)
	}
	if renderErr.Kind != KindOversizedResponse {
		t.Errorf("Kind = %q, want %q", renderErr.Kind, KindOversizedResponse)
	}
}

func TestNetHTTPRenderRejectsNonHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	r, err := NewNetHTTP(testConfig(), nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	r.RedirectPolicy = allowAllRedirects

	_, err = r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL)})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render = %v, want *RenderError", err)
	}
	if renderErr.Kind != KindNetworkFailure {
		t.Errorf("Kind = %q, want %q", renderErr.Kind, KindNetworkFailure)
	}
}

func TestNetHTTPRenderTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond

	r, err := NewNetHTTP(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	r.RedirectPolicy = allowAllRedirects

	_, err = r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL)})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render = %v, want *RenderError", err)
	}
	if renderErr.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", renderErr.Kind, KindTimeout)
	}
}

func TestNetHTTPDefaultRedirectPolicyBlocksPrivate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.1/internal", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r, err := NewNetHTTP(testConfig(), nil, srv.Client())
	if err != nil {
		t.Fatalf("NewNetHTTP: %v", err)
	}
	// Default policy stays in place: the redirect target must classify as
	// public, and 10.0.0.1 does not.

	_, err = r.Render(context.Background(), &Request{URL: mustParse(t, srv.URL+"/start")})
	if err == nil {
		t.Fatal("Render followed a redirect into a private range")
	}
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render = %v, want *RenderError", err)
	}
}

func TestReadBounded(t *testing.T) {
	t.Parallel()

	data, err := readBounded(strings.NewReader("hello"), 10)
	if err != nil || string(data) != "hello" {
		t.Errorf("readBounded under limit = %q, %v", data, err)
	}

	data, err = readBounded(strings.NewReader("hello"), 5)
	if err != nil || string(data) != "hello" {
		t.Errorf("readBounded at limit = %q, %v", data, err)
	}

	if _, err = readBounded(strings.NewReader("hello!"), 5); !errors.Is(err, errBodyTooLarge) {
		t.Errorf("readBounded over limit = %v, want errBodyTooLarge", err)
	}

	data, err = readBounded(strings.NewReader("hello"), 0)
	if err != nil || string(data) != "hello" {
		t.Errorf("readBounded unlimited = %q, %v", data, err)
	}
}

func TestIsHTMLContentType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ct   string
		want bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, tc := range cases {
		if got := isHTMLContentType(tc.ct); got != tc.want {
			t.Errorf("isHTMLContentType(%q) = %v, want %v", tc.ct, got, tc.want)
		}
	}
}
