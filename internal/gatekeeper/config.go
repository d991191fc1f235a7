package gatekeeper

// Config holds the read-only validation policy. It is constructed once at
// startup and safe for unsynchronized concurrent reads.
type Config struct {
	// AllowedSchemes is the closed set of URL schemes a request may use.
	AllowedSchemes []string `yaml:"allowed_schemes"`

	// BlockedHosts mixes exact hostname/IP literals ("localhost",
	// "127.0.0.1") and wildcard patterns ("10.*", "*.internal"). Matching
	// is case-insensitive.
	BlockedHosts []string `yaml:"blocked_hosts"`

	// AllowedHosts is the optional allow-list. Empty means no allow-list is
	// enforced: any host passing the blacklist and classifier checks is
	// accepted. This default-open posture is deliberate; deployments that
	// want a closed policy must populate it explicitly.
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// DefaultConfig mirrors the reserved ranges the classifier already rejects
// with literal entries, so an exact blacklist hit is reported even when DNS
// is unavailable.
func DefaultConfig() Config {
	return Config{
		AllowedSchemes: []string{"http", "https"},
		BlockedHosts: []string{
			"localhost",
			"127.0.0.1",
			"0.0.0.0",
			"::1",
			"10.*",
			"172.16.*", "172.17.*", "172.18.*", "172.19.*",
			"172.20.*", "172.21.*", "172.22.*", "172.23.*",
			"172.24.*", "172.25.*", "172.26.*", "172.27.*",
			"172.28.*", "172.29.*", "172.30.*", "172.31.*",
			"192.168.*",
			"169.254.*",
		},
	}
}
