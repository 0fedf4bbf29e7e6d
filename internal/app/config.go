package app

import (
	"errors"
	"fmt"

	"github.com/vk/widgetgrid/internal/config"
)

// Config holds the process-level settings of an App. Non-zero fields
// override the values loaded from configuration files.
type Config struct {
	// ConfigPaths are files or directories handed to the config loader.
	ConfigPaths []string

	Listen          string
	CORSOrigin      string
	Store           string
	RedisURL        string
	MaxCascadeDepth int

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Store {
	case "", "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid store %q: must be 'memory' or 'redis'", cfg.Store)
	}
	if cfg.MaxCascadeDepth < 0 {
		return nil, errors.New("max-cascade-depth cannot be negative")
	}
	if cfg.HealthcheckPort < 0 {
		return nil, errors.New("healthcheck-port cannot be negative")
	}
	return &cfg, nil
}

// apply overlays the command-line values onto m and fills the defaults.
func (c *Config) apply(m *config.Model) {
	m.Merge(&config.Model{
		Server: config.Server{Listen: c.Listen, CORSOrigin: c.CORSOrigin},
		Store:  config.Store{Backend: c.Store, RedisURL: c.RedisURL},
		Engine: config.Engine{MaxCascadeDepth: c.MaxCascadeDepth},
	})
	m.Normalize()
}
