package renderer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pagemark/pagemark/internal/logging"
)

// BackendConstructor builds a Renderer from the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (Renderer, error)

var (
	mu       sync.RWMutex
	backends = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Names are
// lower-cased internally; registering the same name again overwrites the
// previous constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	backends[strings.ToLower(name)] = ctor
}

// New constructs the configured backend. It returns an error if the named
// backend has not been registered.
func New(cfg Config, logger logging.Logger) (Renderer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = "chromedp"
	}

	mu.RLock()
	ctor, ok := backends[name]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("renderer backend %q not registered: available backends=%v", name, ListBackends())
	}

	r, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("constructing renderer backend %q: %w", name, err)
	}
	if r == nil {
		return nil, errors.New("renderer constructor returned nil")
	}
	return r, nil
}

// ListBackends returns the registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	return out
}
