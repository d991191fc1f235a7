package server

import (
	"os"
	"strings"

	"github.com/pagemark/pagemark/internal/app"
	"github.com/pagemark/pagemark/internal/logging"
)

// Config is the HTTP surface configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// EnableAuth turns on bearer-token authentication for the conversion
	// and history endpoints. When enabled, BearerToken must be set or every
	// request fails with a configuration error.
	EnableAuth  bool   `yaml:"enable_auth"`
	BearerToken string `yaml:"bearer_token"`

	// AppConfig is the pipeline configuration. Nil means defaults.
	AppConfig *app.Config `yaml:"-"`

	// Logger used by the server and handed down to the pipeline. Nil means
	// a default stdout logger.
	Logger logging.Logger `yaml:"-"`
}

// DefaultConfig returns development defaults: local listener, no auth.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
	}
}

// FromEnv overlays the config with PAGEMARK_* environment variables.
func (c *Config) FromEnv() {
	if v := os.Getenv("PAGEMARK_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PAGEMARK_ENABLE_AUTH"); v != "" {
		c.EnableAuth = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("PAGEMARK_BEARER_TOKEN"); v != "" {
		c.BearerToken = v
	}
}
