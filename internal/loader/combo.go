package loader

import (
	"fmt"
	"slices"
)

// Combo runs an ordered list of child loaders. Each finished Task child feeds
// its output to the next child as input, blocking children hold back their
// later siblings, and the combo's progress is the weighted mean of its
// children's progress.
type Combo struct {
	base

	input    any
	children []child

	// lastProgress is the value carried by the most recent progress event.
	lastProgress float64
	// updating is set while a goroutine drains update requests;
	// updatePending asks it for one more pass.
	updating      bool
	updatePending bool
}

type child struct {
	loader Loader
	subs   []*Subscription
}

// NewCombo creates a Waiting combo over children. Nil entries are skipped.
func NewCombo(name string, children []Loader, opts ...Option) *Combo {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Combo{}
	c.init(c, name, o)
	for _, l := range children {
		c.AddLoader(l)
	}
	return c
}

// Input returns the input of the current or last run.
func (c *Combo) Input() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Loaders returns the direct children in declared order.
func (c *Combo) Loaders() []Loader {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Loader, 0, len(c.children))
	for _, ch := range c.children {
		out = append(out, ch.loader)
	}
	return out
}

// AddLoader appends l and attaches it to the combo. A loader that already
// belongs to a combo is removed from it first.
func (c *Combo) AddLoader(l Loader) {
	if l == nil {
		return
	}
	if prev := l.core().Parent(); prev != nil {
		prev.RemoveLoader(l)
	}
	subs := []*Subscription{
		l.OnStateChange(c.handleChildState),
		l.OnProgressChange(func(ProgressEvent) { c.refreshProgress() }),
	}
	l.core().setParent(c)

	c.mu.Lock()
	c.children = append(c.children, child{loader: l, subs: subs})
	c.mu.Unlock()
}

// RemoveLoader detaches l. It reports whether l was a child of the combo.
func (c *Combo) RemoveLoader(l Loader) bool {
	if l == nil {
		return false
	}

	c.mu.Lock()
	i := slices.IndexFunc(c.children, func(ch child) bool { return ch.loader.Equals(l) })
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	removed := c.children[i]
	c.children = slices.Delete(c.children, i, i+1)
	c.mu.Unlock()

	detach(removed)
	return true
}

// ClearLoaders detaches every child.
func (c *Combo) ClearLoaders() {
	c.mu.Lock()
	removed := c.children
	c.children = nil
	c.mu.Unlock()

	for _, ch := range removed {
		detach(ch)
	}
}

func detach(ch child) {
	for _, s := range ch.subs {
		s.Cancel()
	}
	ch.loader.core().setParent(nil)
}

// LoaderList flattens the tree into its leaf tasks, depth first. With
// requireShow, hidden tasks are left out.
func (c *Combo) LoaderList(requireShow bool) []Loader {
	var out []Loader
	for _, l := range c.Loaders() {
		switch v := l.(type) {
		case *Combo:
			out = append(out, v.LoaderList(requireShow)...)
		case *Task:
			if !requireShow || v.Show() {
				out = append(out, v)
			}
		}
	}
	return out
}

// Progress returns 0 while Waiting, the weighted mean of the children while
// Loading and 1 once the run ended.
func (c *Combo) Progress() float64 {
	switch c.State() {
	case Waiting:
		return 0
	case Loading:
		return c.ComputeProgress()
	default:
		return 1
	}
}

// ComputeProgress returns sum(weight*progress)/sum(weight) over the children,
// or 0 when there are none.
func (c *Combo) ComputeProgress() float64 {
	var total, done float64
	for _, l := range c.Loaders() {
		w := l.ProgressWeight()
		total += w
		done += w * l.Progress()
	}
	if total == 0 {
		return 0
	}
	return done / total
}

func (c *Combo) refreshProgress() {
	updated := c.Progress()

	c.mu.Lock()
	old := c.lastProgress
	c.lastProgress = updated
	c.mu.Unlock()

	if old != updated {
		c.emitProgress(old, updated)
	}
}

// Start runs the combo unless it is already Loading. A nil input reuses the
// input of the previous run. With forceRestart, every child is reset first and
// then restarted regardless of cached results.
func (c *Combo) Start(input any, forceRestart bool) {
	if !c.transition(Loading, func(from State) bool {
		if from == Loading {
			return false
		}
		if input != nil {
			c.input = input
		}
		c.forceRestarting = forceRestart
		c.err = nil
		return true
	}) {
		return
	}

	if forceRestart {
		for _, l := range c.Loaders() {
			l.reset()
		}
	}
	c.update()
	c.refreshProgress()
}

// Abort moves a Loading or Waiting combo to Aborted and aborts every child
// that has not ended yet.
func (c *Combo) Abort() {
	aborted := c.transitionThen(Aborted, func(from State) bool { return isActive(from) }, func() {
		for _, l := range c.Loaders() {
			if isActive(l.State()) {
				l.Abort()
			}
		}
	})
	if aborted {
		c.refreshProgress()
	}
}

func (c *Combo) reset() {
	c.transition(Waiting, func(State) bool {
		c.updatePending = false
		return true
	})
	for _, l := range c.Loaders() {
		l.reset()
	}
	c.refreshProgress()
}

func (c *Combo) handleChildState(ev StateEvent) {
	switch ev.NewState {
	case Finished:
		c.update()
	case Aborted:
		c.Abort()
	case Failed:
		c.failFrom(ev.Loader)
	}
	c.refreshProgress()
}

func (c *Combo) failFrom(failed Loader) {
	err := failed.Err()
	if err == nil {
		err = &ChildFailedError{Child: failed.Name()}
	}
	c.transitionThen(Failed, func(from State) bool {
		if !isActive(from) {
			return false
		}
		c.err = err
		return true
	}, func() {
		c.logger.Debug("Combo failed because a child failed.", "loader", c.name, "child", failed.Name(), "error", err)
		for _, l := range c.Loaders() {
			if !l.Equals(failed) {
				l.Abort()
			}
		}
	})
}

// update runs update passes until no further request arrived meanwhile.
// Requests made during a pass, including re-entrant ones from child events,
// are folded into the next pass.
func (c *Combo) update() {
	c.mu.Lock()
	if c.updating {
		c.updatePending = true
		c.mu.Unlock()
		return
	}
	c.updating = true
	c.mu.Unlock()

	for {
		c.updatePass()

		c.mu.Lock()
		if !c.updatePending {
			c.updating = false
			c.mu.Unlock()
			return
		}
		c.updatePending = false
		c.mu.Unlock()
	}
}

func (c *Combo) updatePass() {
	c.mu.Lock()
	if c.state != Loading {
		c.mu.Unlock()
		return
	}
	current := c.input
	force := c.forceRestarting
	children := make([]Loader, 0, len(c.children))
	for _, ch := range c.children {
		children = append(children, ch.loader)
	}
	c.mu.Unlock()

	done, blocked := true, false
	for _, l := range children {
		if c.State() != Loading {
			return
		}

		if s := l.State(); (s == Finished || s == Loading) && restartWarranted(l, current) {
			c.logger.Debug("Restarting child because its input changed.", "loader", c.name, "child", l.Name(), "state", s.String())
			l.reset()
		}

		switch l.State() {
		case Finished:
			current = chainOutput(l, current)
			if l.Block() && !done {
				blocked = true
			}
		case Loading:
			done = false
			blocked = true
		default:
			done = false
			if blocked {
				continue
			}
			l.Start(current, force)
			if l.Block() {
				blocked = true
			}
		}
	}

	if !done {
		return
	}
	c.raisePreviewFinish()
	c.transition(Finished, func(from State) bool { return from == Loading })
}

// restartWarranted asks a settled or running child whether input invalidates it.
// Combos have no cached result and are never reset here.
func restartWarranted(l Loader, input any) bool {
	switch v := l.(type) {
	case *Task:
		return v.ShouldStart(input, false, true)
	case *Combo:
		return false
	default:
		panic(fmt.Sprintf("loader: unknown loader type %T", l))
	}
}

// chainOutput returns the input for the next sibling after l finished.
func chainOutput(l Loader, current any) any {
	switch v := l.(type) {
	case *Task:
		return v.Output()
	case *Combo:
		return current
	default:
		panic(fmt.Sprintf("loader: unknown loader type %T", l))
	}
}
