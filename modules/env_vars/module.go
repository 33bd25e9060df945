// Package env_vars provides the env_vars runner, which captures the process
// environment as a task output.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Environ overrides os.Environ, mainly for tests.
	Environ func() []string
}

// Args defines the arguments for the runner.
type Args struct {
	// Prefix keeps only variables whose name starts with it. The prefix is
	// stripped from the returned keys when Trim is set.
	Prefix string `arg:"prefix"`
	Trim   bool   `arg:"trim_prefix"`
}

// run returns the environment as map[string]any so downstream expressions
// can address it as input.NAME.
func (m *Module) run(ctx context.Context, t *loader.Task, args any, _ any) (any, error) {
	a := args.(*Args)
	environ := m.Environ
	if environ == nil {
		environ = os.Environ
	}

	out := make(map[string]any)
	for _, e := range environ() {
		k, v, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(k, a.Prefix) {
			continue
		}
		if a.Trim {
			k = strings.TrimPrefix(k, a.Prefix)
		}
		if k == "" {
			continue
		}
		out[k] = v
	}

	ctxlog.FromContext(ctx).Debug("Captured environment variables.", "count", len(out), "prefix", a.Prefix)
	t.SetProgress(1)
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("env_vars", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      m.run,
	})
}
