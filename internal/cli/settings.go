package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Settings is the YAML settings file. Every field mirrors a flag.
type Settings struct {
	Pipeline     string `yaml:"pipeline"`
	Input        any    `yaml:"input"`
	Timeout      string `yaml:"timeout"`
	LogFormat    string `yaml:"log_format"`
	LogLevel     string `yaml:"log_level"`
	StatusPort   int    `yaml:"status_port"`
	DashboardURL string `yaml:"dashboard_url"`
	Force        bool   `yaml:"force"`
	NoColor      bool   `yaml:"no_color"`
}

func loadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	return &s, nil
}

// apply copies the settings into o for every flag that was not given
// explicitly.
func (s *Settings) apply(flags *pflag.FlagSet, o *options) error {
	unset := func(name string) bool { return !flags.Changed(name) }

	if s.Pipeline != "" && unset("pipeline") {
		o.pipeline = s.Pipeline
	}
	if s.Input != nil {
		o.inputValue = s.Input
	}
	if s.Timeout != "" && unset("timeout") {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("invalid settings file: timeout: %w", err)
		}
		o.timeout = d
	}
	if s.LogFormat != "" && unset("log-format") {
		o.logFormat = s.LogFormat
	}
	if s.LogLevel != "" && unset("log-level") {
		o.logLevel = s.LogLevel
	}
	if s.StatusPort != 0 && unset("status-port") {
		o.statusPort = s.StatusPort
	}
	if s.DashboardURL != "" && unset("dashboard-url") {
		o.dashboardURL = s.DashboardURL
	}
	if s.Force && unset("force") {
		o.force = true
	}
	if s.NoColor && unset("no-color") {
		o.noColor = true
	}
	return nil
}
