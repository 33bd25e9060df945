package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// StateEvent is delivered to state-change subscribers.
type StateEvent struct {
	Loader   Loader
	OldState State
	NewState State
}

// ProgressEvent is delivered to progress-change subscribers. Both values are
// effective progress readings, never the internal unset marker.
type ProgressEvent struct {
	Loader      Loader
	OldProgress float64
	NewProgress float64
}

// Subscription is a handle returned by the On* methods. Cancel removes the
// listener; it is safe to call more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel detaches the listener from its loader.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// hub is an ordered list of listeners for one event kind.
type hub[E any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(E)
}

func (h *hub[E]) subscribe(fn func(E)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listeners == nil {
		h.listeners = make(map[uint64]func(E))
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn

	return &Subscription{cancel: func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}}
}

// snapshot returns the listeners in subscription order.
func (h *hub[E]) snapshot() []func(E) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]uint64, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]func(E), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.listeners[id])
	}
	return fns
}

// emit calls every listener with no lock held. A panicking listener is
// logged and skipped.
func (h *hub[E]) emit(logger *slog.Logger, kind string, ev E) {
	for _, fn := range h.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Loader event listener panicked.", "event", kind, "panic", fmt.Sprint(r))
				}
			}()
			fn(ev)
		}()
	}
}
