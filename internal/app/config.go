package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagemark/pagemark/internal/extractor"
	"github.com/pagemark/pagemark/internal/gatekeeper"
	"github.com/pagemark/pagemark/internal/renderer"
)

// Config aggregates the per-package pipeline configuration. It is built
// once at startup and treated as read-only afterwards.
type Config struct {
	Gatekeeper gatekeeper.Config `yaml:"gatekeeper"`
	Renderer   renderer.Config   `yaml:"renderer"`
	Extractor  extractor.Config  `yaml:"extractor"`

	// HistoryPath is the SQLite file for the conversion history. Empty
	// disables history entirely.
	HistoryPath string `yaml:"history_path"`
}

// DefaultConfig returns a Config populated with the per-package defaults.
func DefaultConfig() *Config {
	return &Config{
		Gatekeeper:  gatekeeper.DefaultConfig(),
		Renderer:    renderer.DefaultConfig(),
		Extractor:   extractor.DefaultConfig(),
		HistoryPath: "pagemark.db",
	}
}

// LoadFile overlays cfg with the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// FromEnv overlays cfg with PAGEMARK_* environment variables. Unset
// variables leave the current value untouched.
func (c *Config) FromEnv() {
	if v := os.Getenv("PAGEMARK_RENDERER_BACKEND"); v != "" {
		c.Renderer.Backend = v
	}
	if v := os.Getenv("PAGEMARK_RENDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Renderer.Timeout = d
		}
	}
	if v := os.Getenv("PAGEMARK_MAX_CONTENT_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Renderer.MaxContentSize = n
		}
	}
	if v := os.Getenv("PAGEMARK_BLOCKED_HOSTS"); v != "" {
		c.Gatekeeper.BlockedHosts = append(c.Gatekeeper.BlockedHosts, splitList(v)...)
	}
	if v := os.Getenv("PAGEMARK_ALLOWED_HOSTS"); v != "" {
		c.Gatekeeper.AllowedHosts = splitList(v)
	}
	if v := os.Getenv("PAGEMARK_EXTRACTOR_STRATEGY"); v != "" {
		c.Extractor.Strategy = v
	}
	if v, ok := os.LookupEnv("PAGEMARK_HISTORY_PATH"); ok {
		c.HistoryPath = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
