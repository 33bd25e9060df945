package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"
)

// Loader is a unit of work driven by the shared lifecycle state machine.
// The only implementations are *Task and *Combo.
type Loader interface {
	ID() uuid.UUID
	Name() string
	State() State
	UIState() UIState
	Progress() float64
	ProgressWeight() float64
	Block() bool
	Show() bool
	Err() error
	IsForceRestarting() bool
	LastFinishedAt() time.Time
	Parent() *Combo
	TopAncestor() Loader
	Equals(other Loader) bool
	String() string

	// Start begins work without blocking. A nil input means "no input".
	Start(input any, forceRestart bool)
	// Abort cancels a Loading or Waiting loader.
	Abort()
	// WaitForExit starts the loader and blocks until it reaches a terminal
	// state, the timeout elapses or ctx is done. A timeout <= 0 waits forever.
	WaitForExit(ctx context.Context, input any, timeout time.Duration) error

	OnStateChange(fn func(StateEvent)) *Subscription
	OnProgressChange(fn func(ProgressEvent)) *Subscription
	OnPreviewFinish(fn func(Loader)) *Subscription

	core() *base
	// reset cancels any run in flight and returns the loader to Waiting
	// without reporting Aborted.
	reset()
}

// base holds the state shared by every loader kind.
type base struct {
	id     uuid.UUID
	name   string
	weight float64
	block  bool
	show   bool
	logger *slog.Logger
	// self is the concrete loader embedding this base, used as the event source.
	self Loader

	mu              sync.Mutex
	state           State
	progress        float64
	err             error
	forceRestarting bool
	lastFinishedAt  time.Time
	parent          weak.Pointer[Combo]
	// changed is replaced on every state transition and closed after the
	// transition's listeners returned.
	changed chan struct{}

	stateHub    hub[StateEvent]
	progressHub hub[ProgressEvent]
	previewHub  hub[Loader]
}

// init fills in identity and configuration. It must run before the loader is shared.
func (b *base) init(self Loader, name string, o options) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	if name == "" {
		name = "loader-" + id.String()[:8]
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	b.id = id
	b.name = name
	b.weight = o.weight
	b.block = o.block
	b.show = o.show
	b.logger = logger
	b.self = self
	b.state = Waiting
	b.progress = progressUnset
	b.changed = make(chan struct{})
}

func (b *base) core() *base { return b }

func (b *base) ID() uuid.UUID           { return b.id }
func (b *base) Name() string            { return b.name }
func (b *base) ProgressWeight() float64 { return b.weight }
func (b *base) Block() bool             { return b.block }
func (b *base) Show() bool              { return b.show }

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *base) UIState() UIState {
	return UIStateOf(b.State())
}

// Err returns the error captured by the last failed run, if any.
func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *base) IsForceRestarting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forceRestarting
}

// LastFinishedAt returns when the loader last reached Finished, or the zero
// time if it never has.
func (b *base) LastFinishedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFinishedAt
}

// Parent returns the combo this loader is attached to, or nil.
func (b *base) Parent() *Combo {
	b.mu.Lock()
	p := b.parent
	b.mu.Unlock()
	return p.Value()
}

func (b *base) setParent(c *Combo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c == nil {
		b.parent = weak.Pointer[Combo]{}
		return
	}
	b.parent = weak.Make(c)
}

// TopAncestor walks parent links to the root. A detached loader is its own root.
func (b *base) TopAncestor() Loader {
	var top Loader = b.self
	for p := b.Parent(); p != nil; p = p.Parent() {
		top = p
	}
	return top
}

func (b *base) Equals(other Loader) bool {
	if other == nil {
		return false
	}
	return b.id == other.ID()
}

func (b *base) String() string {
	return fmt.Sprintf("Loader(%s, %s)", b.name, b.State())
}

func (b *base) OnStateChange(fn func(StateEvent)) *Subscription {
	return b.stateHub.subscribe(fn)
}

func (b *base) OnProgressChange(fn func(ProgressEvent)) *Subscription {
	return b.progressHub.subscribe(fn)
}

func (b *base) OnPreviewFinish(fn func(Loader)) *Subscription {
	return b.previewHub.subscribe(fn)
}

// transition moves to the target state if allow accepts the current one.
// allow runs with b.mu held and may update other fields together with the
// state. Listeners are notified after the lock is released.
// It reports whether the loader is in the target state afterwards.
func (b *base) transition(to State, allow func(from State) bool) bool {
	return b.transitionThen(to, allow, nil)
}

// transitionThen is transition with a settle step that runs after the
// listeners and before WaitForExit callers wake up.
func (b *base) transitionThen(to State, allow func(from State) bool, settle func()) bool {
	b.mu.Lock()
	from := b.state
	if allow != nil && !allow(from) {
		b.mu.Unlock()
		return false
	}
	if from == to {
		b.mu.Unlock()
		return true
	}
	b.state = to
	if to == Finished {
		b.lastFinishedAt = time.Now()
	}
	changed := b.changed
	b.changed = make(chan struct{})
	b.mu.Unlock()

	b.logger.Debug("Loader state changed.", "loader", b.name, "from", from.String(), "to", to.String())
	b.stateHub.emit(b.logger, "state", StateEvent{Loader: b.self, OldState: from, NewState: to})
	if settle != nil {
		settle()
	}
	close(changed)
	return true
}

func (b *base) emitProgress(old, updated float64) {
	b.progressHub.emit(b.logger, "progress", ProgressEvent{Loader: b.self, OldProgress: old, NewProgress: updated})
}

func (b *base) raisePreviewFinish() {
	b.previewHub.emit(b.logger, "preview_finish", b.self)
}

// snapshot returns the state together with the channel that will be closed on
// the next transition away from it.
func (b *base) snapshot() (State, <-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.changed, b.err
}

func (b *base) WaitForExit(ctx context.Context, input any, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	b.self.Start(input, false)

	for {
		state, changed, err := b.snapshot()
		switch state {
		case Finished:
			return nil
		case Aborted:
			return fmt.Errorf("%s: %w", b.name, ErrAborted)
		case Failed:
			if err != nil {
				return err
			}
			return fmt.Errorf("%s: %w", b.name, ErrUnknown)
		}

		select {
		case <-changed:
		case <-expired:
			return fmt.Errorf("%s after %s: %w", b.name, timeout, ErrTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isActive(s State) bool {
	return s == Loading || s == Waiting
}
