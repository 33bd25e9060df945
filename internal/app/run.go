package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/report"
	"golang.org/x/sync/errgroup"
)

// Run executes the pipeline once and returns its outcome. The status server,
// when configured, lives exactly as long as the run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	console := report.NewConsole(a.outW, a.config.NoColor)
	detach := a.attachReporters(ctx, console)
	defer detach()

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	if a.config.StatusPort > 0 {
		g.Go(func() error { return a.serveStatus(gctx, a.config.StatusPort, done) })
	}
	g.Go(func() error {
		defer close(done)
		return a.runPipeline(gctx, console)
	})

	err := g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) runPipeline(ctx context.Context, console *report.Console) error {
	name := a.root.Name()
	tasks := len(a.root.LoaderList(false))
	if tasks == 0 {
		a.logger.Warn("No tasks found in pipeline, execution not required.", "pipeline", name)
		return nil
	}

	timeout := a.timeout()
	a.logger.Info("🚀 Starting pipeline...", "pipeline", name, "tasks", tasks, "timeout", timeout)
	started := time.Now()

	if a.config.ForceRestart {
		a.root.Start(a.input, true)
	}
	err := a.root.WaitForExit(ctx, a.input, timeout)
	if err != nil && a.root.State() == loader.Loading {
		a.logger.Debug("Aborting unfinished pipeline.", "pipeline", name)
		a.root.Abort()
	}
	console.Summary(a.root)

	elapsed := time.Since(started).Round(time.Millisecond)
	if err != nil {
		a.logger.Error("🏁 Pipeline failed.", "pipeline", name, "elapsed", elapsed, "error", err)
		if errors.Is(err, loader.ErrTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("pipeline %q did not finish: %w", name, err)
		}
		return fmt.Errorf("pipeline %q failed: %w", name, err)
	}
	a.logger.Info("🏁 Pipeline finished.", "pipeline", name, "elapsed", elapsed)
	return nil
}

// attachReporters subscribes the journal, the console and, when a dashboard
// URL is configured, the socket.io publisher. An unreachable dashboard is
// logged and skipped.
func (a *App) attachReporters(ctx context.Context, console *report.Console) func() {
	detachers := []func(){
		report.NewJournal(a.logger).Attach(a.root),
		console.Attach(a.root),
	}

	if url := a.config.DashboardURL; url != "" {
		pub, disconnect, err := report.DialPublisher(ctx, url, a.logger)
		if err != nil {
			a.logger.Warn("Dashboard unavailable, continuing without live events.", "url", url, "error", err)
		} else {
			detachers = append(detachers, pub.Attach(a.root), disconnect)
		}
	}

	return func() {
		for _, d := range detachers {
			d()
		}
	}
}
