// Package app ties windows to the session store and runs the process
// lifecycle: restoring the last layout at startup, tracking the current
// window, and saving its layout at shutdown.
package app

import (
	"context"

	"github.com/metcalfc/folio/internal/content"
	"github.com/metcalfc/folio/internal/state"
	"github.com/metcalfc/folio/internal/window"
	"github.com/rs/zerolog"
)

// Default size of windows that carry no stored geometry.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// DefaultRetentionDays is how long closed-session records are kept.
const DefaultRetentionDays = 30

// Store is the session persistence the app needs. *state.Store implements it.
type Store interface {
	SaveActive(ctx context.Context, s state.WindowSession) error
	LoadActive(ctx context.Context) ([]state.WindowSession, error)
	ClearActive(ctx context.Context) error
	SaveForRestore(ctx context.Context, s state.WindowSession) error
	LoadForRestore(ctx context.Context) ([]state.WindowSession, error)
	ClearRestored(ctx context.Context) error
	PruneOlderThan(ctx context.Context, days int) error
}

// Options configures an App.
type Options struct {
	Store    Store
	Resolver content.Resolver
	Logger   zerolog.Logger

	DragThreshold float64
	// RetentionDays defaults to DefaultRetentionDays when zero.
	RetentionDays int
	// RecoverActive rebuilds the window from the active store when no
	// shutdown layout was saved.
	RecoverActive bool
}

// App owns the window registry and decides which window is current. Like
// the windows themselves it is driven from the UI goroutine only.
type App struct {
	opts     Options
	registry *window.Registry
	logger   zerolog.Logger

	current  string
	opened   []func(*window.Window)
	shutdown bool
}

// New creates an App and installs it as the registry's window spawner.
func New(opts Options) *App {
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	a := &App{
		opts:     opts,
		registry: window.NewRegistry(opts.Logger),
		logger:   opts.Logger.With().Str("component", "app").Logger(),
	}
	a.registry.SetSpawner(a.spawn)
	return a
}

// Registry returns the registry of open windows.
func (a *App) Registry() *window.Registry { return a.registry }

// OnWindowOpened subscribes fn to every window the app creates, including
// windows spawned by moving a tab out.
func (a *App) OnWindowOpened(fn func(*window.Window)) {
	a.opened = append(a.opened, fn)
}

// Start opens the first window. A layout saved at the last shutdown is
// rebuilt and then discarded; otherwise the window opens on the contents
// page. Old closed-session records are pruned afterwards.
func (a *App) Start(ctx context.Context) *window.Window {
	w := a.restore(ctx)
	if w == nil {
		w = a.NewWindow([]int{1}, 0, window.Bounds{Width: DefaultWidth, Height: DefaultHeight}, false)
	}

	if err := a.opts.Store.PruneOlderThan(ctx, a.opts.RetentionDays); err != nil {
		a.logger.Warn().Err(err).Msg("prune closed sessions failed")
	}
	return w
}

func (a *App) restore(ctx context.Context) *window.Window {
	records, err := a.opts.Store.LoadForRestore(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("load restore session failed")
	}
	if len(records) > 0 {
		w := a.fromSession(records[0])
		if err := a.opts.Store.ClearRestored(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("clear restored session failed")
		}
		a.logger.Info().Str("window", w.ID()).Int("tabs", w.TabCount()).Msg("session restored")
		return w
	}

	if !a.opts.RecoverActive {
		return nil
	}
	records, err = a.opts.Store.LoadActive(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("load active session failed")
	}
	if len(records) == 0 {
		return nil
	}
	w := a.fromSession(records[0])
	a.logger.Info().Str("window", w.ID()).Msg("recovered window from active session")
	return w
}

func (a *App) fromSession(s state.WindowSession) *window.Window {
	b := window.Bounds{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	if b.Width == 0 || b.Height == 0 {
		b.Width, b.Height = DefaultWidth, DefaultHeight
	}
	return a.newWindow(s.WindowID, s.TabPages, s.ActiveTabIndex, b, s.Maximized)
}

// NewWindow opens a window with one tab per page, makes it current, and
// saves its layout.
func (a *App) NewWindow(pages []int, active int, b window.Bounds, maximized bool) *window.Window {
	return a.newWindow("", pages, active, b, maximized)
}

func (a *App) newWindow(id string, pages []int, active int, b window.Bounds, maximized bool) *window.Window {
	w := window.New(window.Options{
		ID:            id,
		Registry:      a.registry,
		Persister:     activePersister{a},
		Resolver:      a.opts.Resolver,
		Logger:        a.opts.Logger,
		DragThreshold: a.opts.DragThreshold,
		Bounds:        b,
		Maximized:     maximized,
	}, pages, active)

	a.current = w.ID()
	w.Persist()
	for _, fn := range a.opened {
		fn(w)
	}
	return w
}

// spawn handles a request to move a tab into a new window. The new window
// opens at the drop point with the source window's size.
func (a *App) spawn(req window.TransferRequest) bool {
	b := window.Bounds{X: req.Hint.X, Y: req.Hint.Y, Width: DefaultWidth, Height: DefaultHeight}
	if src := a.registry.Get(req.SourceID); src != nil && src.Bounds().Width > 0 {
		b.Width, b.Height = src.Bounds().Width, src.Bounds().Height
	}
	a.NewWindow([]int{req.Page}, 0, b, false)
	return true
}

// Current returns the window most recently changed or focused. When that
// window has closed, the most recently opened live window takes its place.
func (a *App) Current() *window.Window {
	if w := a.registry.Get(a.current); w != nil {
		return w
	}
	list := a.registry.List()
	if len(list) == 0 {
		return nil
	}
	w := list[len(list)-1]
	a.current = w.ID()
	return w
}

// Focus makes w current and records its layout in the active store.
func (a *App) Focus(w *window.Window) {
	if w == nil || w.Closed() || a.current == w.ID() {
		return
	}
	a.current = w.ID()
	w.Persist()
}

// CloseWindow closes w. Closing the current window clears the active store.
// Closing the last open window ends the session, so its layout is kept for
// the next start.
func (a *App) CloseWindow(ctx context.Context, w *window.Window) {
	if w == nil || w.Closed() {
		return
	}
	if a.registry.Count() == 1 {
		a.current = w.ID()
		a.Shutdown(ctx)
		w.Close()
		return
	}

	wasCurrent := a.current == w.ID()
	w.Close()
	if wasCurrent {
		a.current = ""
		if err := a.opts.Store.ClearActive(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("clear active session failed")
		}
	}
}

// Shutdown saves the current window's layout for the next start. It runs
// at most once.
func (a *App) Shutdown(ctx context.Context) {
	if a.shutdown {
		return
	}
	a.shutdown = true

	w := a.Current()
	if w == nil {
		return
	}
	if err := a.opts.Store.SaveForRestore(ctx, w.Snapshot()); err != nil {
		a.logger.Error().Err(err).Msg("save session for restore failed")
		return
	}
	if err := a.opts.Store.ClearActive(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("clear active session failed")
	}
	a.logger.Info().Str("window", w.ID()).Msg("session saved")
}

// Navigate shows a topic in the current window.
func (a *App) Navigate(part, topic int) {
	if w := a.Current(); w != nil {
		w.NavigateToTopic(part, topic)
	}
}

// GoToPage shows the spread containing page in the current window.
func (a *App) GoToPage(page int) {
	if w := a.Current(); w != nil {
		w.NavigateToPage(page)
	}
}

// activePersister makes the saving window current before writing its
// layout, so only one window's layout occupies the active store.
type activePersister struct{ a *App }

func (p activePersister) SaveActive(ctx context.Context, s state.WindowSession) error {
	if p.a.shutdown {
		return nil
	}
	p.a.current = s.WindowID
	return p.a.opts.Store.SaveActive(ctx, s)
}
