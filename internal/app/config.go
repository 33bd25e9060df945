package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // .hcl file or directory

	// Input replaces the input declared by the pipeline when non-nil.
	Input any
	// Timeout bounds the whole run. Zero falls back to the pipeline's timeout.
	Timeout      time.Duration
	ForceRestart bool

	LogFormat    string
	LogLevel     string
	StatusPort   int
	DashboardURL string
	NoColor      bool
}

// NewConfig validates cfg and fills in defaults for the logging fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		return nil, fmt.Errorf("status port %d is out of range", cfg.StatusPort)
	}
	return &cfg, nil
}
