// Package gatekeeper validates candidate URLs before anything touches the
// network. It rejects unsupported schemes, blacklisted hosts and any host
// that is, or resolves to, a private/reserved address, closing the common
// SSRF routes into internal infrastructure.
package gatekeeper

import (
	"context"
	"net/netip"
	"net/url"
	"path"
	"strings"

	"github.com/pagemark/pagemark/internal/logging"
)

// ValidatedURL is a candidate URL that passed every check. The resolved
// addresses are pinned here so the fetch stage can connect to exactly what
// validation saw, instead of re-resolving and racing a DNS rebind.
type ValidatedURL struct {
	URL  *url.URL
	Host string

	// ResolvedAddrs holds every address observed during validation: all
	// A/AAAA records for a hostname, or the single literal IP. Never empty
	// on a successful validation.
	ResolvedAddrs []netip.Addr
}

// String returns the validated URL in its original serialized form.
func (v *ValidatedURL) String() string { return v.URL.String() }

// Gatekeeper runs the ordered validation checks over an immutable Config.
type Gatekeeper struct {
	cfg        Config
	classifier *Classifier
	logger     logging.Logger
}

// New creates a Gatekeeper. A nil classifier gets a default one backed by
// net.DefaultResolver.
func New(cfg Config, classifier *Classifier, logger logging.Logger) *Gatekeeper {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Gatekeeper{
		cfg:        cfg,
		classifier: classifier,
		logger:     logging.OrNop(logger).With(logging.Field{Key: "component", Value: "gatekeeper"}),
	}
}

// Validate checks rawURL and returns a ValidatedURL or a *SecurityError.
// Checks short-circuit in order: parse + scheme, host presence, blacklist
// literal, blacklist pattern, address classification, optional allow-list.
// The only side effect is DNS resolution; no fetch happens here.
func (g *Gatekeeper) Validate(ctx context.Context, rawURL string) (*ValidatedURL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, securityErr(KindMalformedURL, rawURL, "URL must not be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, securityErr(KindMalformedURL, rawURL, "invalid URL: %v", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if !contains(g.cfg.AllowedSchemes, scheme) {
		return nil, securityErr(KindUnsupportedScheme, rawURL, "scheme %q is not allowed", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, securityErr(KindMalformedURL, rawURL, "URL must contain a hostname")
	}

	if blocked, pattern := g.hostBlocked(host); blocked {
		g.logger.Warn("blocked host",
			logging.Field{Key: "host", Value: host},
			logging.Field{Key: "rule", Value: pattern})
		return nil, securityErr(KindBlockedHost, rawURL, "host %q is blacklisted", host)
	}

	class, addrs := g.classifier.Classify(ctx, host)
	if class != ClassPublic {
		g.logger.Warn("non-public address",
			logging.Field{Key: "host", Value: host},
			logging.Field{Key: "class", Value: string(class)})
		return nil, securityErr(KindBlockedHost, rawURL, "host %q resolves to a %s address", host, class)
	}

	if len(g.cfg.AllowedHosts) > 0 && !g.hostAllowed(host) {
		return nil, securityErr(KindNotWhitelisted, rawURL, "host %q is not on the allow-list", host)
	}

	g.logger.Debug("validated url",
		logging.Field{Key: "host", Value: host},
		logging.Field{Key: "resolved", Value: len(addrs)})

	return &ValidatedURL{URL: u, Host: host, ResolvedAddrs: addrs}, nil
}

// hostBlocked reports whether host matches any blacklist entry, returning
// the matching rule for logging.
func (g *Gatekeeper) hostBlocked(host string) (bool, string) {
	for _, rule := range g.cfg.BlockedHosts {
		if matchHost(rule, host) {
			return true, rule
		}
	}
	return false, ""
}

func (g *Gatekeeper) hostAllowed(host string) bool {
	for _, rule := range g.cfg.AllowedHosts {
		if matchHost(rule, host) {
			return true
		}
	}
	return false
}

// matchHost compares case-insensitively; rules may carry shell-style
// wildcards ("10.*", "*.corp.example.com").
func matchHost(rule, host string) bool {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if rule == "" {
		return false
	}
	if !strings.Contains(rule, "*") {
		return rule == host
	}
	ok, err := path.Match(rule, host)
	return err == nil && ok
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
