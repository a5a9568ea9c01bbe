// Package window implements document windows holding up to three tabs, the
// registry that tracks which windows are open, and the gesture and menu logic
// that moves tabs between them.
//
// All window and registry methods are expected to run on the UI goroutine;
// they do no locking of their own.
package window

import (
	"github.com/rs/zerolog"
)

// TransferRequest asks for a tab to be moved between windows. An empty
// TargetID asks for a new window.
type TransferRequest struct {
	SourceID string
	TabIndex int
	Page     int
	TargetID string
	Hint     Point
}

// Spawner creates a new window holding the requested tab. It reports whether
// the window was created.
type Spawner func(req TransferRequest) bool

type transferSubscriber struct {
	id int
	fn func(TransferRequest) bool
}

// Registry tracks the live windows of the process. It holds windows by id
// only for lookup; closing a window removes it.
type Registry struct {
	windows map[string]*Window
	order   []string

	subscribers []transferSubscriber
	nextSub     int
	spawner     Spawner

	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		windows: make(map[string]*Window),
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// SetSpawner installs the function that handles transfers to a new window.
func (r *Registry) SetSpawner(s Spawner) {
	r.spawner = s
}

// Register adds w. Entries of windows that have since been closed are pruned.
func (r *Registry) Register(w *Window) {
	r.prune()
	if _, ok := r.windows[w.id]; ok {
		return
	}
	r.windows[w.id] = w
	r.order = append(r.order, w.id)
}

// Unregister removes w.
func (r *Registry) Unregister(w *Window) {
	if _, ok := r.windows[w.id]; !ok {
		return
	}
	delete(r.windows, w.id)
	for i, id := range r.order {
		if id == w.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// List returns the live windows in registration order.
func (r *Registry) List() []*Window {
	r.prune()
	out := make([]*Window, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.windows[id])
	}
	return out
}

// Count returns the number of live windows.
func (r *Registry) Count() int {
	r.prune()
	return len(r.order)
}

// Get returns the live window with the given id, or nil.
func (r *Registry) Get(id string) *Window {
	w, ok := r.windows[id]
	if !ok || w.closed {
		return nil
	}
	return w
}

// FindWindowAt returns the first live window, other than exclude, whose
// bounds contain the point. Overlapping windows are resolved by registration
// order, not stacking order.
func (r *Registry) FindWindowAt(x, y float64, exclude *Window) *Window {
	p := Point{X: x, Y: y}
	for _, w := range r.List() {
		if w == exclude {
			continue
		}
		if w.bounds.Contains(p) {
			return w
		}
	}
	return nil
}

// OnTransfer subscribes fn to transfer requests. fn returns true when it
// accepted the tab. The returned func unsubscribes.
func (r *Registry) OnTransfer(fn func(TransferRequest) bool) func() {
	r.nextSub++
	id := r.nextSub
	r.subscribers = append(r.subscribers, transferSubscriber{id: id, fn: fn})
	return func() {
		for i, s := range r.subscribers {
			if s.id == id {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				return
			}
		}
	}
}

// RequestTabTransfer publishes req and reports whether the tab was accepted.
// A request for a window that is no longer live is dropped.
func (r *Registry) RequestTabTransfer(req TransferRequest) bool {
	log := r.logger.With().Str("source", req.SourceID).Int("tab", req.TabIndex).Int("page", req.Page).Logger()

	if req.TargetID == "" {
		if r.spawner == nil {
			log.Warn().Msg("no spawner installed, transfer to new window dropped")
			return false
		}
		return r.spawner(req)
	}

	if r.Get(req.TargetID) == nil {
		log.Debug().Str("target", req.TargetID).Msg("transfer target no longer open")
		return false
	}

	accepted := false
	for _, s := range append([]transferSubscriber(nil), r.subscribers...) {
		if s.fn(req) {
			accepted = true
		}
	}
	if !accepted {
		log.Debug().Str("target", req.TargetID).Msg("transfer refused")
	}
	return accepted
}

func (r *Registry) prune() {
	live := r.order[:0]
	for _, id := range r.order {
		if w := r.windows[id]; w != nil && !w.closed {
			live = append(live, id)
			continue
		}
		delete(r.windows, id)
	}
	r.order = live
}
