package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/launchgrid/internal/loader"
)

// RunnerFunc executes one run of a task. args is the value returned by
// NewArgs with the task's arguments decoded into it (nil when the runner
// takes no arguments) and input is the task input of this run.
type RunnerFunc func(ctx context.Context, t *loader.Task, args any, input any) (any, error)

// RegisteredRunner holds the compiled Go parts of a runner.
type RegisteredRunner struct {
	// NewArgs returns a pointer to a fresh argument struct whose fields carry
	// `arg` tags. Nil means the runner accepts no arguments.
	NewArgs func() any
	Fn      RunnerFunc
}

// RegisterRunner registers a runner under name. Registering the same name
// twice is a programming error and panics.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner handler with name '%s' already registered", name))
	}
	if handler == nil || handler.Fn == nil {
		panic(fmt.Sprintf("runner handler '%s' has no function", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.runners[name] = handler
}
