package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Renderer.Backend != "chromedp" {
		t.Errorf("Renderer.Backend = %q", cfg.Renderer.Backend)
	}
	if cfg.Renderer.Timeout != 30*time.Second {
		t.Errorf("Renderer.Timeout = %v", cfg.Renderer.Timeout)
	}
	if len(cfg.Gatekeeper.BlockedHosts) == 0 {
		t.Error("default blocklist is empty")
	}
	if cfg.Extractor.Strategy != "heuristic" {
		t.Errorf("Extractor.Strategy = %q", cfg.Extractor.Strategy)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
renderer:
  backend: nethttp
  timeout: 10s
  max_content_size: 1048576
gatekeeper:
  allowed_hosts:
    - example.com
extractor:
  strategy: readability
history_path: /tmp/history.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Renderer.Backend != "nethttp" {
		t.Errorf("Backend = %q", cfg.Renderer.Backend)
	}
	if cfg.Renderer.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Renderer.Timeout)
	}
	if cfg.Renderer.MaxContentSize != 1<<20 {
		t.Errorf("MaxContentSize = %d", cfg.Renderer.MaxContentSize)
	}
	if len(cfg.Gatekeeper.AllowedHosts) != 1 || cfg.Gatekeeper.AllowedHosts[0] != "example.com" {
		t.Errorf("AllowedHosts = %v", cfg.Gatekeeper.AllowedHosts)
	}
	if cfg.Extractor.Strategy != "readability" {
		t.Errorf("Strategy = %q", cfg.Extractor.Strategy)
	}
	if cfg.HistoryPath != "/tmp/history.db" {
		t.Errorf("HistoryPath = %q", cfg.HistoryPath)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile accepted a missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PAGEMARK_RENDERER_BACKEND", "nethttp")
	t.Setenv("PAGEMARK_RENDER_TIMEOUT", "5s")
	t.Setenv("PAGEMARK_MAX_CONTENT_SIZE", "2048")
	t.Setenv("PAGEMARK_BLOCKED_HOSTS", "evil.example.com, *.bad.example.com")
	t.Setenv("PAGEMARK_ALLOWED_HOSTS", "good.example.com")
	t.Setenv("PAGEMARK_EXTRACTOR_STRATEGY", "readability")
	t.Setenv("PAGEMARK_HISTORY_PATH", "")

	cfg := DefaultConfig()
	blockedBefore := len(cfg.Gatekeeper.BlockedHosts)
	cfg.FromEnv()

	if cfg.Renderer.Backend != "nethttp" {
		t.Errorf("Backend = %q", cfg.Renderer.Backend)
	}
	if cfg.Renderer.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Renderer.Timeout)
	}
	if cfg.Renderer.MaxContentSize != 2048 {
		t.Errorf("MaxContentSize = %d", cfg.Renderer.MaxContentSize)
	}
	// Blocked hosts append to the defaults rather than replacing them.
	if len(cfg.Gatekeeper.BlockedHosts) != blockedBefore+2 {
		t.Errorf("BlockedHosts = %v", cfg.Gatekeeper.BlockedHosts)
	}
	if len(cfg.Gatekeeper.AllowedHosts) != 1 {
		t.Errorf("AllowedHosts = %v", cfg.Gatekeeper.AllowedHosts)
	}
	if cfg.Extractor.Strategy != "readability" {
		t.Errorf("Strategy = %q", cfg.Extractor.Strategy)
	}
	// Explicitly empty history path disables history.
	if cfg.HistoryPath != "" {
		t.Errorf("HistoryPath = %q, want empty", cfg.HistoryPath)
	}
}
