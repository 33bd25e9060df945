package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// Build implements the Builder interface.
func (b *DefaultBuilder) Build(ctx context.Context, m *config.Model) (*loader.Combo, error) {
	logger := ctxlog.FromContext(ctx)
	if m == nil || m.Pipeline == nil {
		return nil, fmt.Errorf("cannot build: model has no pipeline")
	}
	p := m.Pipeline
	logger.Debug("Build: Starting loader tree construction.", "pipeline", p.Name)

	children, err := b.buildNodes(logger, p.Steps)
	if err != nil {
		return nil, err
	}
	root := loader.NewCombo(p.Name, children, loader.WithLogger(logger))

	logger.Debug("Build: Loader tree construction successful.", "leaves", len(root.LoaderList(false)))
	return root, nil
}

func (b *DefaultBuilder) buildNodes(logger *slog.Logger, nodes []*config.Node) ([]loader.Loader, error) {
	out := make([]loader.Loader, 0, len(nodes))
	for _, n := range nodes {
		l, err := b.buildNode(logger, n)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (b *DefaultBuilder) buildNode(logger *slog.Logger, n *config.Node) (loader.Loader, error) {
	opts := []loader.Option{loader.WithLogger(logger), loader.WithProgressWeight(n.Weight)}
	if !n.Block {
		opts = append(opts, loader.NonBlocking())
	}
	if !n.Show {
		opts = append(opts, loader.Hidden())
	}

	if n.Kind == config.ComboNode {
		children, err := b.buildNodes(logger, n.Children)
		if err != nil {
			return nil, err
		}
		logger.Debug("Build: Created combo.", "name", n.Name, "children", len(children))
		return loader.NewCombo(n.Name, children, opts...), nil
	}

	handler, ok := b.registry.Runner(n.Runner)
	if !ok {
		return nil, fmt.Errorf("task %q (%s): unknown runner %q", n.Name, n.Source, n.Runner)
	}
	if err := checkReferences(n); err != nil {
		return nil, err
	}

	opts = append(opts, loader.WithReloadWindow(n.ReloadWindow))
	logger.Debug("Build: Created task.", "name", n.Name, "runner", n.Runner)
	return loader.NewTask(n.Name, b.taskFunc(n, handler), opts...), nil
}

// taskFunc adapts a registered runner to a loader delegate. Arguments are
// evaluated per run because they may depend on the run input.
func (b *DefaultBuilder) taskFunc(n *config.Node, handler *registry.RegisteredRunner) loader.TaskFunc {
	return func(ctx context.Context, t *loader.Task, input any) (any, error) {
		var args any
		if handler.NewArgs != nil {
			args = handler.NewArgs()
			evalCtx, err := b.converter.EvalContext(input)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", n.Name, err)
			}
			if err := b.converter.DecodeArguments(ctx, args, n.Arguments, evalCtx); err != nil {
				return nil, fmt.Errorf("task %q: %w", n.Name, err)
			}
		}
		return handler.Fn(ctx, t, args, input)
	}
}

// Input returns the pipeline input as a plain Go value, or nil when the
// pipeline declares none.
func Input(m *config.Model, converter config.Converter) (any, error) {
	if m == nil || m.Pipeline == nil || m.Pipeline.Input.IsNull() {
		return nil, nil
	}
	v, err := converter.FromCtyValue(m.Pipeline.Input)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: invalid input: %w", m.Pipeline.Name, err)
	}
	return v, nil
}
