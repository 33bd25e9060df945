package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vk/launchgrid/internal/builder"
	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/internal/report"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	config   *Config
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model

	root  *loader.Combo
	input any
}

// NewApp loads the pipeline at cfg.PipelinePath, registers the runner
// modules (the core modules when none are given), validates the pipeline
// against them and builds the loader tree. Nothing runs until Run.
func NewApp(outW io.Writer, cfg *Config, l config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := l.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	logger.Debug("Pipeline loaded and translated into unified model.", "pipeline", model.Pipeline.Name)

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New().Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "runners", reg.Names())

	if err := reg.ValidateModel(ctx, model); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	root, err := builder.New(converter, reg).Build(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	input := cfg.Input
	if input == nil {
		if input, err = builder.Input(model, converter); err != nil {
			return nil, err
		}
	}

	return &App{
		outW:     outW,
		config:   cfg,
		logger:   logger,
		registry: reg,
		model:    model,
		root:     root,
		input:    input,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Root returns the loader tree built from the pipeline.
func (a *App) Root() *loader.Combo {
	return a.root
}

// Snapshot returns the current status of the pipeline.
func (a *App) Snapshot() report.Snapshot {
	return report.TakeSnapshot(a.root)
}

// timeout returns the configured run timeout, falling back to the pipeline's.
func (a *App) timeout() time.Duration {
	if a.config.Timeout > 0 {
		return a.config.Timeout
	}
	return a.model.Pipeline.Timeout
}
