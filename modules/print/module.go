// Package print provides the print runner, which writes a message or its
// input to the console and passes the input on unchanged.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Args defines the arguments for the print runner.
type Args struct {
	// Message is printed instead of the input when set.
	Message string `arg:"message"`
}

func (m *Module) run(ctx context.Context, t *loader.Task, args any, input any) (any, error) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	ctxlog.FromContext(ctx).Debug("Printing task input.")

	if msg := args.(*Args).Message; msg != "" {
		fmt.Fprintf(out, "      %s\n", msg)
		return input, nil
	}

	switch v := input.(type) {
	case nil:
		fmt.Fprintln(out, "      (null)")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "      %s = %v\n", k, v[k])
		}
	default:
		fmt.Fprintf(out, "      %v\n", v)
	}
	return input, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("print", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      m.run,
	})
}
