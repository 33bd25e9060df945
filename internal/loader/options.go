package loader

import (
	"log/slog"
	"time"
)

// Option configures a Task or a Combo at construction time.
type Option func(*options)

type options struct {
	weight        float64
	block         bool
	show          bool
	logger        *slog.Logger
	inputProvider func() any
	reloadWindow  time.Duration
}

func defaultOptions() options {
	return options{
		weight: 1,
		block:  true,
		show:   true,
	}
}

// WithProgressWeight sets the loader's share of its parent's progress.
// Non-positive weights are ignored.
func WithProgressWeight(w float64) Option {
	return func(o *options) {
		if w > 0 {
			o.weight = w
		}
	}
}

// NonBlocking lets later siblings start while this loader is still running.
func NonBlocking() Option {
	return func(o *options) { o.block = false }
}

// Hidden excludes the loader from Combo.LoaderList(true).
func Hidden() Option {
	return func(o *options) { o.show = false }
}

// WithLogger sets the logger used for listener failures and handed to task
// delegates through their context.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInputProvider supplies a task's input when Start is called without one.
// It has no effect on combos.
func WithInputProvider(fn func() any) Option {
	return func(o *options) { o.inputProvider = fn }
}

// WithReloadWindow keeps a finished task's output for d after completion:
// restarting with the same input inside the window is a no-op. Zero or a
// negative value disables expiry, so a finished task is reused until its
// input changes or a restart is forced. It has no effect on combos.
func WithReloadWindow(d time.Duration) Option {
	return func(o *options) { o.reloadWindow = d }
}
