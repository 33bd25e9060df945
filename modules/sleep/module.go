// Package sleep provides the sleep runner: it waits for a duration while
// reporting progress, then passes its input on. It stands in for slow work
// in demo pipelines and tests.
package sleep

import (
	"context"
	"errors"
	"time"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// DefaultSteps is the number of progress reports when Args.Steps is unset.
const DefaultSteps = 10

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the runner.
type Args struct {
	Duration time.Duration `arg:"duration,required"`
	Steps    int           `arg:"steps"`
	// Fail makes the run end with this error message after sleeping.
	Fail string `arg:"fail"`
}

func run(ctx context.Context, t *loader.Task, args any, input any) (any, error) {
	a := args.(*Args)
	steps := a.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sleeping.", "duration", a.Duration, "steps", steps)

	tick := a.Duration / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(tick):
		}
		t.SetProgress(float64(i) / float64(steps))
	}

	if a.Fail != "" {
		return nil, errors.New(a.Fail)
	}
	return input, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("sleep", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      run,
	})
}
