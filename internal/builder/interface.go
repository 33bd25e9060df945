package builder

import (
	"context"

	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/loader"
)

// Builder transforms a pipeline model into a runnable loader tree.
//
// Build returns an error when a task names a runner the registry does not
// know or when an argument expression references an unknown variable.
// Argument values themselves are evaluated lazily, once per task run.
type Builder interface {
	Build(ctx context.Context, m *config.Model) (*loader.Combo, error)
}
