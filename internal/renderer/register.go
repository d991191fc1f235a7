package renderer

import "github.com/pagemark/pagemark/internal/logging"

// RegisterDefaultBackends registers the chromedp and nethttp backends. Call
// this early in main() so New can find them.
func RegisterDefaultBackends() {
	RegisterBackend("chromedp", func(cfg Config, logger logging.Logger) (Renderer, error) {
		return NewChromedp(cfg, logger)
	})

	RegisterBackend("nethttp", func(cfg Config, logger logging.Logger) (Renderer, error) {
		return NewNetHTTP(cfg, logger, nil)
	})
}
