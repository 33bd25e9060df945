package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launchgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Flags(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{
		"--input", "1.20.1",
		"--timeout", "90s",
		"--log-format", "json",
		"--log-level", "debug",
		"--status-port", "8080",
		"--dashboard-url", "http://localhost:3000",
		"-f", "--no-color",
		"launch.hcl",
	}, &out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "launch.hcl", cfg.PipelinePath)
	assert.Equal(t, "1.20.1", cfg.Input)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.StatusPort)
	assert.Equal(t, "http://localhost:3000", cfg.DashboardURL)
	assert.True(t, cfg.ForceRestart)
	assert.True(t, cfg.NoColor)
}

func TestParse_Defaults(t *testing.T) {
	cfg, shouldExit, err := Parse([]string{"-p", "pipelines/"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "pipelines/", cfg.PipelinePath)
	assert.Nil(t, cfg.Input, "no input flag keeps the pipeline's input")
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Timeout)
	assert.False(t, cfg.ForceRestart)
}

func TestParse_PipelineFlagWinsOverArgument(t *testing.T) {
	cfg, _, err := Parse([]string{"--pipeline", "flag.hcl", "arg.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "flag.hcl", cfg.PipelinePath)
}

func TestParse_ShouldExit(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"help", []string{"--help"}},
		{"no pipeline", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, shouldExit, err := Parse(tc.args, &out)

			require.NoError(t, err)
			assert.True(t, shouldExit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
			assert.Contains(t, out.String(), "--status-port")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown flag", []string{"--bogus"}, "unknown flag: --bogus"},
		{"bad duration", []string{"--timeout", "soon", "p.hcl"}, `invalid argument "soon"`},
		{"bad log format", []string{"--log-format", "xml", "p.hcl"}, "invalid log format"},
		{"bad log level", []string{"--log-level", "loud", "p.hcl"}, "invalid log level"},
		{"too many paths", []string{"a.hcl", "b.hcl"}, "accepts at most 1 arg(s)"},
		{"missing settings", []string{"--config", "/does/not/exist.yaml", "p.hcl"}, "failed to read settings file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

func TestParse_SettingsFile(t *testing.T) {
	path := writeSettings(t, `
pipeline: from-settings.hcl
input:
  version: "1.20.1"
  channels: [stable, beta]
timeout: 2m
log_level: warn
status_port: 9090
force: true
`)

	cfg, shouldExit, err := Parse([]string{"--config", path, "--log-level", "error"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "from-settings.hcl", cfg.PipelinePath)
	assert.Equal(t, map[string]any{"version": "1.20.1", "channels": []any{"stable", "beta"}}, cfg.Input)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "error", cfg.LogLevel, "explicit flags win over the settings file")
	assert.Equal(t, 9090, cfg.StatusPort)
	assert.True(t, cfg.ForceRestart)
}

func TestParse_InputFlagWinsOverSettings(t *testing.T) {
	path := writeSettings(t, "pipeline: p.hcl\ninput: settings\n")

	cfg, _, err := Parse([]string{"-c", path, "--input", "flag"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "flag", cfg.Input)
}

func TestParse_SettingsFileErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "pipelines: p.hcl\n", "field pipelines not found"},
		{"bad timeout", "pipeline: p.hcl\ntimeout: later\n", "timeout"},
		{"not yaml", "pipeline: [unclosed\n", "invalid settings file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse([]string{"--config", writeSettings(t, tc.content)}, &bytes.Buffer{})
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParse_EmptySettingsFile(t *testing.T) {
	cfg, _, err := Parse([]string{"--config", writeSettings(t, ""), "p.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "p.hcl", cfg.PipelinePath)
}
