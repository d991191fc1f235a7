package gatekeeper

import "fmt"

// Kind identifies why a URL was rejected. Security rejections are final: the
// same URL rejected once will be rejected again, so callers should not retry.
type Kind string

const (
	KindUnsupportedScheme Kind = "unsupported_scheme"
	KindMalformedURL      Kind = "malformed_url"
	KindBlockedHost       Kind = "blocked_host"
	KindNotWhitelisted    Kind = "not_whitelisted"
)

// SecurityError is returned by Validate for any URL that must not be fetched.
type SecurityError struct {
	Kind Kind
	URL  string
	Msg  string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security: %s: %s", e.Kind, e.Msg)
}

func securityErr(kind Kind, url, format string, args ...any) *SecurityError {
	return &SecurityError{Kind: kind, URL: url, Msg: fmt.Sprintf(format, args...)}
}
