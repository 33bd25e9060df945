package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/app"
	"github.com/vk/launchgrid/internal/hcl"
	"github.com/vk/launchgrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is shared by the logger, the console and the print runner.
	Output *SafeBuffer
	Err    error
	App    *app.App
}

// LogOutput returns everything written so far.
func (r *HarnessResult) LogOutput() string {
	return r.Output.String()
}

// RunIntegrationTest runs a pipeline end to end using a default background
// context. files maps relative paths to their content.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(context.Background(), t, files, app.Config{}, modules...)
}

// RunIntegrationTestWithConfig is RunIntegrationTest with a caller-provided
// context and base configuration. PipelinePath is always set to the
// directory holding files.
func RunIntegrationTestWithConfig(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Write all pipeline files to a temporary directory.
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	// 2. Configure the app against that directory.
	cfg.PipelinePath = dir
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	cfg.NoColor = true
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("LAUNCHGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	// 3. Build the app; a panic here is a programming error in a test module.
	var testApp *app.App
	var panicErr any
	func() {
		defer func() { panicErr = recover() }()
		testApp, err = app.NewApp(out, appConfig, hcl.NewLoader(), modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{Output: out, Err: fmt.Errorf("application startup panicked | %v", panicErr)}
	}
	if err != nil {
		return &HarnessResult{Output: out, Err: err}
	}

	// 4. Run the pipeline to completion.
	return &HarnessResult{Output: out, Err: testApp.Run(ctx), App: testApp}
}
