package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/pagemark/pagemark/internal/gatekeeper"
	"github.com/pagemark/pagemark/internal/logging"
)

const redirectMaxHops = 5

// NetHTTPRenderer fetches the page with a plain HTTP GET. No scripts run, so
// it only suits static pages, but it is cheap and honors address pinning
// precisely via a custom dialer.
type NetHTTPRenderer struct {
	cfg        Config
	logger     logging.Logger
	client     *http.Client
	classifier *gatekeeper.Classifier

	// RedirectPolicy overrides the default per-hop check (scheme must stay
	// http/https and the target host must classify as public). Tests use
	// this to follow redirects inside loopback fixtures.
	RedirectPolicy func(req *http.Request, via []*http.Request) error
}

// NewNetHTTP creates the static backend. When httpClient is nil a client
// with a pinning dialer is built per request; tests may inject their own.
func NewNetHTTP(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPRenderer, error) {
	componentLogger := logging.OrNop(logger).With(logging.Field{Key: "backend", Value: "nethttp"})

	componentLogger.Info("created nethttp renderer",
		logging.Field{Key: "timeout", Value: cfg.Timeout.String()},
		logging.Field{Key: "max_content_size", Value: cfg.MaxContentSize})

	return &NetHTTPRenderer{
		cfg:        cfg,
		logger:     componentLogger,
		client:     httpClient,
		classifier: gatekeeper.NewClassifier(nil),
	}, nil
}

func (r *NetHTTPRenderer) Render(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.URL == nil {
		return nil, errors.New("nil render request")
	}
	target := req.URL.String()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	client := r.client
	if client == nil {
		client = &http.Client{Transport: r.transportFor(req)}
	} else {
		clone := *client
		client = &clone
	}
	client.CheckRedirect = r.redirectPolicy()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, wrapErr(target, err)
	}
	if r.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		r.logger.Warn("fetch failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, wrapErr(target, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, &RenderError{
			Kind: KindNetworkFailure,
			URL:  target,
			Err:  fmt.Errorf("unsupported content type %q", ct),
		}
	}

	body, err := readBounded(resp.Body, r.cfg.MaxContentSize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, oversizedErr(target, r.cfg.MaxContentSize)
		}
		return nil, wrapErr(target, err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	r.logger.Debug("fetched page",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "final_url", Value: finalURL.String()},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "bytes", Value: len(body)})

	return &Result{
		HTML:       string(body),
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

func (r *NetHTTPRenderer) Close() error {
	r.logger.Info("closing nethttp renderer")
	return nil
}

// transportFor builds a transport that dials the pinned address whenever the
// connection targets the request's own hostname, so the fetch hits exactly
// what validation resolved.
func (r *NetHTTPRenderer) transportFor(req *Request) http.RoundTripper {
	pinnedHost := strings.ToLower(req.URL.Hostname())
	var pinned netip.Addr
	if len(req.PinnedAddrs) > 0 {
		pinned = req.PinnedAddrs[0]
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			if pinned.IsValid() && strings.EqualFold(host, pinnedHost) {
				addr = net.JoinHostPort(pinned.String(), port)
			}
			return dialer.DialContext(ctx, network, addr)
		},
	}
}

func (r *NetHTTPRenderer) redirectPolicy() func(req *http.Request, via []*http.Request) error {
	if r.RedirectPolicy != nil {
		return r.RedirectPolicy
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= redirectMaxHops {
			return errors.New("too many redirects")
		}
		scheme := strings.ToLower(req.URL.Scheme)
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
		}
		// Redirect targets were never seen by the gatekeeper, so each hop
		// is classified again before the client follows it.
		if class, _ := r.classifier.Classify(req.Context(), req.URL.Hostname()); class != gatekeeper.ClassPublic {
			return fmt.Errorf("redirect to %s address %q", class, req.URL.Hostname())
		}
		return nil
	}
}

var errBodyTooLarge = errors.New("body too large")

// readBounded reads at most limit bytes and fails if the body goes beyond,
// instead of silently truncating.
func readBounded(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
