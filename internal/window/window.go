package window

import (
	"context"

	"github.com/google/uuid"
	"github.com/metcalfc/folio/internal/content"
	"github.com/metcalfc/folio/internal/pagemap"
	"github.com/metcalfc/folio/internal/state"
	"github.com/rs/zerolog"
)

// MaxTabs is the most tabs a window can hold.
const MaxTabs = 3

// DefaultDragThreshold is the pointer travel, in screen units, after which a
// press on a tab becomes a drag.
const DefaultDragThreshold = 50.0

// Tab is a window's bookmark into one spread. Index always equals the tab's
// position in the window.
type Tab struct {
	Index int
	Page  int
}

// Persister receives a window's layout after every change.
type Persister interface {
	SaveActive(ctx context.Context, s state.WindowSession) error
}

// PageChange is sent to page listeners whenever a window shows a new spread.
type PageChange struct {
	WindowID  string
	LeftPage  int
	RightPage int
}

// Options configures a new Window.
type Options struct {
	// ID is generated when empty.
	ID            string
	Registry      *Registry
	Persister     Persister
	Resolver      content.Resolver
	Logger        zerolog.Logger
	DragThreshold float64
	Bounds        Bounds
	Maximized     bool
}

type listener[T any] struct {
	id int
	fn func(T)
}

type listeners[T any] struct {
	next int
	list []listener[T]
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.next++
	id := l.next
	l.list = append(l.list, listener[T]{id: id, fn: fn})
	return func() {
		for i, x := range l.list {
			if x.id == id {
				l.list = append(l.list[:i], l.list[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[T]) emit(v T) {
	for _, x := range append([]listener[T](nil), l.list...) {
		x.fn(v)
	}
}

// Window is a document window: an ordered list of tabs, one of which is
// active and displayed.
type Window struct {
	id        string
	tabs      []Tab
	active    int
	left      int
	bounds    Bounds
	maximized bool
	closed    bool

	registry  *Registry
	persister Persister
	resolver  content.Resolver
	logger    zerolog.Logger
	threshold float64

	drag          dragState
	unsubTransfer func()

	pageListeners   listeners[PageChange]
	layoutListeners listeners[struct{}]
}

// New creates a window with one tab per page and registers it. Pages are
// normalized to left pages; beyond MaxTabs they are dropped, and no pages
// yields a single contents tab.
func New(opts Options, pages []int, active int) *Window {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	threshold := opts.DragThreshold
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}

	w := &Window{
		id:        id,
		bounds:    opts.Bounds,
		maximized: opts.Maximized,
		registry:  opts.Registry,
		persister: opts.Persister,
		resolver:  opts.Resolver,
		logger:    opts.Logger.With().Str("window", id).Logger(),
		threshold: threshold,
	}

	if len(pages) == 0 {
		pages = []int{pagemap.ContentsPage}
	}
	if len(pages) > MaxTabs {
		pages = pages[:MaxTabs]
	}
	for i, p := range pages {
		w.tabs = append(w.tabs, Tab{Index: i, Page: pagemap.ClampToValidLeftPage(p)})
	}
	if active < 0 || active >= len(w.tabs) {
		active = 0
	}
	w.active = active
	w.left = w.tabs[active].Page

	if w.registry != nil {
		w.registry.Register(w)
		w.unsubTransfer = w.registry.OnTransfer(w.handleTransfer)
	}
	return w
}

// ID returns the window's unique identifier.
func (w *Window) ID() string { return w.id }

// Tabs returns a copy of the tab list.
func (w *Window) Tabs() []Tab { return append([]Tab(nil), w.tabs...) }

// TabCount returns the number of tabs.
func (w *Window) TabCount() int { return len(w.tabs) }

// HasCapacity reports whether another tab can be added.
func (w *Window) HasCapacity() bool { return len(w.tabs) < MaxTabs }

// ActiveTab returns the index of the active tab.
func (w *Window) ActiveTab() int { return w.active }

// LeftPage returns the displayed left page.
func (w *Window) LeftPage() int { return w.left }

// RightPage returns the displayed right page.
func (w *Window) RightPage() int { return w.left + 1 }

// Bounds returns the window's screen rectangle.
func (w *Window) Bounds() Bounds { return w.bounds }

// Maximized reports whether the window is maximized.
func (w *Window) Maximized() bool { return w.maximized }

// Closed reports whether Close has been called.
func (w *Window) Closed() bool { return w.closed }

// Spread returns the content of the displayed pages. Pages without content
// come back as placeholders.
func (w *Window) Spread() (left, right content.Page) {
	return content.ResolveOrPlaceholder(w.resolver, w.left),
		content.ResolveOrPlaceholder(w.resolver, w.left+1)
}

// OnPageChanged subscribes fn to spread changes. The returned func
// unsubscribes.
func (w *Window) OnPageChanged(fn func(PageChange)) func() {
	return w.pageListeners.add(fn)
}

// OnLayoutChanged subscribes fn to changes of tabs, active tab, bounds, or
// closure. The returned func unsubscribes.
func (w *Window) OnLayoutChanged(fn func()) func() {
	return w.layoutListeners.add(func(struct{}) { fn() })
}

// AddTab appends a tab on page and activates it. It does nothing when the
// window is full.
func (w *Window) AddTab(page int) bool {
	if w.closed || !w.HasCapacity() {
		return false
	}
	w.tabs = append(w.tabs, Tab{Index: len(w.tabs), Page: pagemap.ClampToValidLeftPage(page)})
	w.active = len(w.tabs) - 1
	w.show()
	w.changed()
	return true
}

// CloseTab removes tab i. Tab 0 cannot be closed. When the closed tab was
// active the last remaining tab becomes active.
func (w *Window) CloseTab(i int) bool {
	if w.closed || i <= 0 || i >= len(w.tabs) {
		return false
	}

	w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
	for j := range w.tabs {
		w.tabs[j].Index = j
	}

	switch {
	case w.active == i:
		w.active = len(w.tabs) - 1
	case w.active > i:
		w.active--
	}
	if w.active >= len(w.tabs) {
		w.active = len(w.tabs) - 1
	}

	if w.left != w.tabs[w.active].Page {
		w.show()
	}
	w.changed()
	return true
}

// SetActiveTab activates tab i and displays its spread.
func (w *Window) SetActiveTab(i int) bool {
	if w.closed || i < 0 || i >= len(w.tabs) {
		return false
	}
	w.active = i
	w.show()
	w.changed()
	return true
}

// AcceptIncomingTab adds a tab moved here from another window. It does
// nothing when the window is full.
func (w *Window) AcceptIncomingTab(page int) bool {
	if !w.AddTab(page) {
		w.logger.Debug().Int("page", page).Msg("incoming tab refused, window full")
		return false
	}
	return true
}

// NavigateToTopic shows the first spread of a topic in the active tab.
func (w *Window) NavigateToTopic(part, topic int) {
	w.NavigateToPage(pagemap.LeftPageForTopic(part, topic))
}

// NavigateToPage shows the spread containing page in the active tab.
func (w *Window) NavigateToPage(page int) {
	if w.closed {
		return
	}
	w.tabs[w.active].Page = pagemap.ClampToValidLeftPage(page)
	w.show()
	w.changed()
}

// Back moves the active tab one spread back.
func (w *Window) Back() { w.NavigateToPage(w.left - 2) }

// Forward moves the active tab one spread forward.
func (w *Window) Forward() { w.NavigateToPage(w.left + 2) }

// CanGoBack reports whether a previous spread exists.
func (w *Window) CanGoBack() bool { return w.left > pagemap.MinPage }

// CanGoForward reports whether a following spread exists.
func (w *Window) CanGoForward() bool {
	return w.left < pagemap.ClampToValidLeftPage(pagemap.MaxPage)
}

// SetBounds records the window's screen rectangle.
func (w *Window) SetBounds(b Bounds) {
	if w.closed || w.bounds == b {
		return
	}
	w.bounds = b
	w.changed()
}

// SetMaximized records the maximized state.
func (w *Window) SetMaximized(m bool) {
	if w.closed || w.maximized == m {
		return
	}
	w.maximized = m
	w.changed()
}

// Snapshot returns the window's persistable layout.
func (w *Window) Snapshot() state.WindowSession {
	pages := make([]int, len(w.tabs))
	for i, t := range w.tabs {
		pages[i] = t.Page
	}
	return state.WindowSession{
		WindowID:       w.id,
		TabPages:       pages,
		ActiveTabIndex: w.active,
		X:              w.bounds.X,
		Y:              w.bounds.Y,
		Width:          w.bounds.Width,
		Height:         w.bounds.Height,
		Maximized:      w.maximized,
	}
}

// Persist writes the layout to the active store. Failures are logged and
// otherwise ignored.
func (w *Window) Persist() {
	if w.persister == nil || w.closed {
		return
	}
	if err := w.persister.SaveActive(context.Background(), w.Snapshot()); err != nil {
		w.logger.Warn().Err(err).Msg("save window session failed")
	}
}

// Close unregisters the window. Further mutations are ignored.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.drag = dragState{}
	w.closed = true
	if w.unsubTransfer != nil {
		w.unsubTransfer()
	}
	if w.registry != nil {
		w.registry.Unregister(w)
	}
	w.layoutListeners.emit(struct{}{})
}

func (w *Window) handleTransfer(req TransferRequest) bool {
	if w.closed || req.TargetID != w.id {
		return false
	}
	return w.AcceptIncomingTab(req.Page)
}

// show displays the active tab's spread and notifies page listeners.
func (w *Window) show() {
	w.left = w.tabs[w.active].Page
	w.pageListeners.emit(PageChange{WindowID: w.id, LeftPage: w.left, RightPage: w.left + 1})
}

// changed persists and notifies layout listeners.
func (w *Window) changed() {
	w.Persist()
	w.layoutListeners.emit(struct{}{})
}
