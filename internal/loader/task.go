package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/vk/launchgrid/internal/ctxlog"
)

// TaskFunc is the unit of work wrapped by a Task. input is the input of this
// run and ctx is cancelled when the task is aborted or restarted. The returned
// value becomes the task output.
type TaskFunc func(ctx context.Context, t *Task, input any) (any, error)

var errNoDelegate = errors.New("task has no delegate")

// Task is a leaf loader running a single TaskFunc.
type Task struct {
	base

	fn            TaskFunc
	inputProvider func() any
	reloadWindow  time.Duration

	input  any
	output any

	// runID identifies the current run. Results from any other run are dropped.
	runID  uint64
	runCtx context.Context
	cancel context.CancelFunc
}

// NewTask creates a Waiting task. An empty name is replaced by one derived
// from the task's ID.
func NewTask(name string, fn TaskFunc, opts ...Option) *Task {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Task{
		fn:            fn,
		inputProvider: o.inputProvider,
		reloadWindow:  o.reloadWindow,
	}
	t.init(t, name, o)
	return t
}

// Progress returns 0 while Waiting, the last reported value (or ProgressFloor)
// while Loading and 1 once the run ended.
func (t *Task) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return effectiveProgress(t.state, t.progress)
}

// SetProgress records the delegate's progress, clamped to [0, 1].
func (t *Task) SetProgress(p float64) {
	p = min(max(p, 0), 1)

	t.mu.Lock()
	if t.progress == p {
		t.mu.Unlock()
		return
	}
	old := effectiveProgress(t.state, t.progress)
	t.progress = p
	updated := effectiveProgress(t.state, t.progress)
	t.mu.Unlock()

	if old != updated {
		t.emitProgress(old, updated)
	}
}

func (t *Task) Input() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

func (t *Task) Output() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output
}

func (t *Task) ReloadWindow() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reloadWindow
}

// SetDelegate replaces the work function used by subsequent runs.
func (t *Task) SetDelegate(fn TaskFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = fn
}

func (t *Task) SetInputProvider(fn func() any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputProvider = fn
}

func (t *Task) SetReloadWindow(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reloadWindow = d
}

// IsAborted reports whether the task was aborted or its current run was cancelled.
func (t *Task) IsAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Aborted {
		return true
	}
	return t.runCtx != nil && t.runCtx.Err() != nil
}

// ShouldStart reports whether starting with input would begin a new run.
// ignoreReloadWindow keeps a finished task settled even after its reload
// window expired.
func (t *Task) ShouldStart(input any, forceRestart, ignoreReloadWindow bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shouldStartLocked(input, forceRestart, ignoreReloadWindow)
}

func (t *Task) shouldStartLocked(input any, forceRestart, ignoreReloadWindow bool) bool {
	if forceRestart {
		return true
	}
	if !sameInput(input, t.input) {
		return true
	}

	switch t.state {
	case Loading:
		return false
	case Finished:
		if ignoreReloadWindow || t.reloadWindow <= 0 {
			return false
		}
		return time.Since(t.lastFinishedAt) >= t.reloadWindow
	default:
		return true
	}
}

// Start resolves the input (argument, then input provider, then the stored
// input) and launches a run unless ShouldStart says the current result still
// holds. A run already in flight is cancelled and its result discarded.
func (t *Task) Start(input any, forceRestart bool) {
	input, err := t.resolveInput(input)
	if err != nil {
		var cancel context.CancelFunc
		t.transition(Failed, func(State) bool {
			cancel = t.cancel
			t.runID++
			t.err = err
			return true
		})
		if cancel != nil {
			cancel()
		}
		return
	}

	var (
		started bool
		gen     uint64
		ctx     context.Context
		fn      TaskFunc
	)
	t.transition(Loading, func(State) bool {
		if !t.shouldStartLocked(input, forceRestart, false) {
			return false
		}
		if t.cancel != nil {
			t.cancel()
		}
		t.runID++
		gen = t.runID
		ctx, t.cancel = context.WithCancel(ctxlog.WithLogger(context.Background(), t.logger.With("loader", t.name)))
		t.runCtx = ctx
		t.input = input
		t.forceRestarting = forceRestart
		t.err = nil
		t.progress = progressUnset
		fn = t.fn
		started = true
		return true
	})
	if !started {
		return
	}

	go t.run(ctx, gen, fn, input)
}

func (t *Task) resolveInput(input any) (resolved any, err error) {
	if input != nil {
		return input, nil
	}

	t.mu.Lock()
	provider, stored := t.inputProvider, t.input
	t.mu.Unlock()
	if provider == nil {
		return stored, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("input provider for %q panicked: %v", t.name, r)
		}
	}()
	return provider(), nil
}

func (t *Task) run(ctx context.Context, gen uint64, fn TaskFunc, input any) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Task run started.", "run", gen)

	out, err := t.invoke(ctx, fn, input)
	if err != nil {
		if t.transition(Failed, func(from State) bool {
			if from != Loading || t.runID != gen {
				return false
			}
			t.err = err
			return true
		}) {
			logger.Debug("Task run failed.", "run", gen, "error", err)
		}
		return
	}

	t.mu.Lock()
	current := t.state == Loading && t.runID == gen
	if current {
		t.output = out
	}
	t.mu.Unlock()
	if !current {
		logger.Debug("Discarding result of a superseded task run.", "run", gen)
		return
	}

	t.raisePreviewFinish()
	if t.transition(Finished, func(from State) bool { return from == Loading && t.runID == gen }) {
		logger.Debug("Task run finished.", "run", gen)
	}
}

func (t *Task) invoke(ctx context.Context, fn TaskFunc, input any) (out any, err error) {
	if fn == nil {
		return nil, errNoDelegate
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: t.name, Value: r}
		}
	}()
	return fn(ctx, t, input)
}

// Abort moves a Loading or Waiting task to Aborted and cancels its run.
// The delegate keeps running until it observes ctx; its result is ignored.
func (t *Task) Abort() {
	var cancel context.CancelFunc
	t.transition(Aborted, func(from State) bool {
		if !isActive(from) {
			return false
		}
		cancel = t.cancel
		return true
	})
	if cancel != nil {
		cancel()
	}
}

func (t *Task) reset() {
	var cancel context.CancelFunc
	t.transition(Waiting, func(State) bool {
		cancel = t.cancel
		t.cancel = nil
		t.runCtx = nil
		t.runID++
		t.progress = progressUnset
		return true
	})
	if cancel != nil {
		cancel()
	}
}

// sameInput compares comparable values with == and everything else deeply.
func sameInput(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	// Structs holding non-comparable values in interface fields still panic.
	defer func() {
		if recover() != nil {
			same = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
