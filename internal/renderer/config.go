package renderer

import "time"

// Config selects and tunes the render backend.
type Config struct {
	// Backend names a registered backend, "chromedp" or "nethttp".
	Backend string `yaml:"backend"`

	// Timeout bounds one page load end to end. The orchestrator applies it
	// as a context deadline, so it holds regardless of backend behavior.
	Timeout time.Duration `yaml:"timeout"`

	// MaxContentSize caps the rendered document in bytes. Oversized pages
	// are rejected, never truncated.
	MaxContentSize int64 `yaml:"max_content_size"`

	// IdleAfter is how long the network must stay quiet before the
	// chromedp backend considers the page settled.
	IdleAfter time.Duration `yaml:"idle_after"`

	// Headless toggles the chromedp browser window. Only ever false during
	// local debugging.
	Headless bool `yaml:"headless"`

	UserAgent string `yaml:"user_agent"`
}

// DefaultConfig returns production defaults: headless Chrome, 30s page
// budget, 16 MiB cap.
func DefaultConfig() Config {
	return Config{
		Backend:        "chromedp",
		Timeout:        30 * time.Second,
		MaxContentSize: 16 << 20,
		IdleAfter:      2 * time.Second,
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
