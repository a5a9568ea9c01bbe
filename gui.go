//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/folio/internal/app"
	"github.com/metcalfc/folio/internal/config"
	"github.com/metcalfc/folio/internal/content"
	"github.com/metcalfc/folio/internal/logging"
	"github.com/metcalfc/folio/internal/pagemap"
	"github.com/metcalfc/folio/internal/window"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	tabColor      = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	activeColor   = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	draggingColor = color.NRGBA{R: 0xff, G: 0xaa, B: 0x00, A: 0xff}
)

// gui maps document windows to their fyne windows.
type gui struct {
	ctx       context.Context
	fyne      fyne.App
	app       *app.App
	bookTitle string
	windows   map[string]*windowUI
}

// windowUI is the fyne window showing one document window.
type windowUI struct {
	g  *gui
	w  *window.Window
	fw fyne.Window

	tabs     [window.MaxTabs]*tabButton
	addTab   *widget.Button
	back     *widget.Button
	forward  *widget.Button
	part     *widget.Select
	topic    *widget.Select
	goTo     *widget.Entry
	left     *pageView
	right    *pageView
	status   *widget.Label
	updating bool

	lastDrag window.Point
	done     chan struct{}
	unsub    []func()
}

// tabButton is one tab of a window's tab strip. It forwards presses and
// drags to the window's gesture handling.
type tabButton struct {
	widget.BaseWidget
	ui    *windowUI
	index int
	bg    *canvas.Rectangle
	label *widget.Label
}

func newTabButton(ui *windowUI, index int) *tabButton {
	t := &tabButton{
		ui:    ui,
		index: index,
		bg:    canvas.NewRectangle(tabColor),
		label: widget.NewLabel(""),
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tabButton) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(t.bg, t.label))
}

func (t *tabButton) MouseDown(e *desktop.MouseEvent) {
	b := window.ButtonLeft
	if e.Button == desktop.MouseButtonSecondary {
		b = window.ButtonRight
	}
	t.ui.g.app.Focus(t.ui.w)
	p := t.ui.screenPoint(e.AbsolutePosition)
	t.ui.lastDrag = p
	if items := t.ui.w.PointerPressed(t.index, b, p); len(items) > 0 {
		t.ui.showMenu(items, e.AbsolutePosition)
	}
}

func (t *tabButton) MouseUp(*desktop.MouseEvent) {
	// A drag finishes in DragEnd; a plain click just disarms.
	if !t.ui.w.Dragging() {
		t.ui.w.CancelDrag()
	}
}

func (t *tabButton) Dragged(e *fyne.DragEvent) {
	p := t.ui.screenPoint(e.AbsolutePosition)
	t.ui.lastDrag = p
	t.ui.w.PointerMoved(p)
	if t.ui.w.Dragging() {
		t.bg.FillColor = draggingColor
		t.bg.Refresh()
	}
}

// DragEnd hit-tests against the bounds each window last recorded, not the
// window manager's placement; see screenPoint.
func (t *tabButton) DragEnd() {
	outcome := t.ui.w.PointerReleased(t.ui.lastDrag)
	if outcome != window.DropNone {
		t.ui.status.SetText("Tab " + outcome.String())
	}
	t.ui.refresh()
}

// pageView shows one side of a spread.
type pageView struct {
	number   *widget.Label
	title    *widget.Label
	subtitle *widget.Label
	body     *widget.Label
	box      *fyne.Container
}

func newPageView() *pageView {
	v := &pageView{
		number:   widget.NewLabel(""),
		title:    widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		subtitle: widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
		body:     widget.NewLabel(""),
	}
	v.body.Wrapping = fyne.TextWrapWord
	v.title.Wrapping = fyne.TextWrapWord
	v.box = container.NewBorder(
		container.NewVBox(v.number, v.title, v.subtitle), nil, nil, nil,
		container.NewVScroll(v.body),
	)
	return v
}

func (v *pageView) show(p content.Page) {
	v.number.SetText(fmt.Sprintf("Page %d", p.Number))
	if p.Empty() {
		v.title.SetText("")
		v.subtitle.SetText("")
		v.body.SetText("(blank page)")
		return
	}
	v.title.SetText(p.Title)
	v.subtitle.SetText(p.Subtitle)
	v.body.SetText(p.Body)
}

func partOptions() []string {
	out := make([]string, pagemap.Parts)
	for i := range out {
		out[i] = fmt.Sprintf("Part %d", i+1)
	}
	return out
}

func topicOptions(part int) []string {
	var out []string
	for _, t := range pagemap.Topics(part) {
		out = append(out, fmt.Sprintf("Topic %d (%s)", t.Number, t.Label))
	}
	return out
}

func (g *gui) open(w *window.Window) {
	ui := &windowUI{
		g:     g,
		w:     w,
		fw:    g.fyne.NewWindow(g.bookTitle),
		left:  newPageView(),
		right: newPageView(),
		done:  make(chan struct{}),
	}
	g.windows[w.ID()] = ui

	tabBar := container.NewHBox()
	for i := range ui.tabs {
		ui.tabs[i] = newTabButton(ui, i)
		tabBar.Add(ui.tabs[i])
	}
	ui.addTab = widget.NewButton("+", func() {
		g.app.Focus(w)
		ui.promptNewTab()
	})
	tabBar.Add(ui.addTab)

	ui.back = widget.NewButton("◀", func() { g.app.Focus(w); w.Back() })
	ui.forward = widget.NewButton("▶", func() { g.app.Focus(w); w.Forward() })

	ui.part = widget.NewSelect(partOptions(), nil)
	ui.topic = widget.NewSelect(nil, nil)
	ui.part.OnChanged = func(string) {
		if ui.updating {
			return
		}
		g.app.Focus(w)
		w.NavigateToTopic(ui.part.SelectedIndex()+1, 1)
	}
	ui.topic.OnChanged = func(string) {
		if ui.updating {
			return
		}
		g.app.Focus(w)
		w.NavigateToTopic(ui.part.SelectedIndex()+1, ui.topic.SelectedIndex()+1)
	}

	ui.goTo = widget.NewEntry()
	ui.goTo.SetPlaceHolder("Go to page")
	ui.goTo.OnSubmitted = func(s string) {
		page, err := pagemap.ParsePage(s)
		if err != nil {
			ui.status.SetText(err.Error())
			return
		}
		g.app.Focus(w)
		w.NavigateToPage(page)
		ui.goTo.SetText("")
	}

	ui.status = widget.NewLabel("")

	toolbar := container.NewBorder(nil, nil, tabBar,
		container.NewHBox(ui.back, ui.forward, ui.part, ui.topic, ui.goTo))
	spread := container.NewHSplit(ui.left.box, ui.right.box)
	ui.fw.SetContent(container.NewBorder(toolbar, ui.status, nil, nil, spread))

	b := w.Bounds()
	ui.fw.Resize(fyne.NewSize(float32(b.Width), float32(b.Height)))
	ui.fw.SetFullScreen(w.Maximized())

	ui.fw.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		g.app.Focus(w)
		switch key.Name {
		case fyne.KeyLeft:
			w.Back()
		case fyne.KeyRight:
			w.Forward()
		case fyne.KeyF:
			ui.fw.SetFullScreen(!ui.fw.FullScreen())
			w.SetMaximized(ui.fw.FullScreen())
		case fyne.KeyT:
			w.AddTab(w.LeftPage())
		case fyne.KeyX:
			w.CloseTab(w.ActiveTab())
		case fyne.KeyN:
			nb := w.Bounds()
			nb.X, nb.Y = nb.X+40, nb.Y+40
			g.app.NewWindow(nil, 0, nb, false)
		case fyne.KeyEscape:
			w.CancelDrag()
			ui.refresh()
		}
	})

	ui.unsub = append(ui.unsub,
		w.OnPageChanged(func(window.PageChange) { ui.refresh() }),
		w.OnLayoutChanged(ui.refresh),
	)

	ui.fw.SetOnClosed(func() {
		ui.detach()
		g.app.CloseWindow(g.ctx, w)
	})

	go ui.watchSize()

	ui.refresh()
	ui.fw.Show()
}

// watchSize records the canvas size as the window's bounds. fyne reports
// neither resizes nor window positions, so the size is polled and the
// position stays where the window was placed.
func (ui *windowUI) watchSize() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ui.done:
			return
		case <-ticker.C:
			fyne.Do(func() {
				if ui.w.Closed() || ui.w.Dragging() {
					return
				}
				size := ui.fw.Canvas().Size()
				if size.Width <= 0 || size.Height <= 0 {
					return
				}
				b := ui.w.Bounds()
				b.Width, b.Height = float64(size.Width), float64(size.Height)
				ui.w.SetBounds(b)
			})
		}
	}
}

func (ui *windowUI) detach() {
	for _, fn := range ui.unsub {
		fn()
	}
	ui.unsub = nil
	select {
	case <-ui.done:
	default:
		close(ui.done)
	}
	delete(ui.g.windows, ui.w.ID())
}

// screenPoint converts a canvas position to the desktop coordinates used
// for hit-testing between windows. fyne does not report where a window sits
// on screen, so the origin is the position stored in the window's Bounds
// (restored from the session or offset from its opener) and shown in the
// title bar.
func (ui *windowUI) screenPoint(pos fyne.Position) window.Point {
	b := ui.w.Bounds()
	return window.Point{X: b.X + float64(pos.X), Y: b.Y + float64(pos.Y)}
}

// promptNewTab asks for a page and opens a tab there.
func (ui *windowUI) promptNewTab() {
	entry := widget.NewEntry()
	entry.SetText(fmt.Sprint(ui.w.LeftPage()))
	items := []*widget.FormItem{widget.NewFormItem("Page", entry)}
	dialog.ShowForm("New tab", "Open", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		page, err := pagemap.ParsePage(entry.Text)
		if err != nil {
			ui.status.SetText(err.Error())
			return
		}
		if !ui.w.AddTab(page) {
			ui.status.SetText("Tab limit reached")
		}
	}, ui.fw)
}

func (ui *windowUI) showMenu(items []window.MenuItem, pos fyne.Position) {
	var entries []*fyne.MenuItem
	for _, it := range items {
		entry := fyne.NewMenuItem(it.Label, func() {
			if !ui.w.RunMenuItem(it) {
				ui.status.SetText(it.Label + ": not possible")
			}
		})
		entry.Disabled = !it.Enabled
		entries = append(entries, entry)
	}
	widget.ShowPopUpMenuAtPosition(fyne.NewMenu("", entries...), ui.fw.Canvas(), pos)
}

func (ui *windowUI) refresh() {
	if ui.w.Closed() {
		return
	}
	ui.updating = true
	defer func() { ui.updating = false }()

	n := 0
	for i, x := range ui.g.app.Registry().List() {
		if x == ui.w {
			n = i + 1
		}
	}
	b := ui.w.Bounds()
	ui.fw.SetTitle(fmt.Sprintf("%s - Window %d @ %.0f,%.0f", ui.g.bookTitle, n, b.X, b.Y))

	tabs := ui.w.Tabs()
	for i, tb := range ui.tabs {
		if i >= len(tabs) {
			tb.Hide()
			continue
		}
		tb.label.SetText(fmt.Sprintf("%d: p.%d", i+1, tabs[i].Page))
		tb.bg.FillColor = tabColor
		if i == ui.w.ActiveTab() {
			tb.bg.FillColor = activeColor
		}
		tb.bg.Refresh()
		tb.Show()
	}
	if ui.w.HasCapacity() {
		ui.addTab.Enable()
	} else {
		ui.addTab.Disable()
	}
	if ui.w.CanGoBack() {
		ui.back.Enable()
	} else {
		ui.back.Disable()
	}
	if ui.w.CanGoForward() {
		ui.forward.Enable()
	} else {
		ui.forward.Disable()
	}

	part := pagemap.PartOf(ui.w.LeftPage())
	ui.part.SetSelectedIndex(part - 1)
	ui.topic.Options = topicOptions(part)
	if topic, ok := pagemap.TopicForLeftPage(part, ui.w.LeftPage()); ok {
		ui.topic.SetSelectedIndex(topic - 1)
	} else {
		ui.topic.ClearSelected()
	}
	ui.topic.Refresh()

	left, right := ui.w.Spread()
	ui.left.show(left)
	ui.right.show(right)
}

func main() {
	cfg := config.Load()

	stateDir := flag.String("state", cfg.StateDir, "Directory for session files")
	redisURL := flag.String("redis", cfg.RedisURL, "Redis URL for session storage (overrides -state)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	threshold := flag.Float64("d", cfg.DragThreshold, "Drag threshold in pixels")
	recoverActive := flag.Bool("recover", cfg.RecoverActive, "Reopen the last live window after a crash")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Folio - Multi-window Book Reader (GUI)\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  folio-gui [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats: %s\n", strings.Join(content.SupportedFormats(), ", "))
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("folio-gui %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg.StateDir = *stateDir
	cfg.RedisURL = *redisURL
	cfg.LogLevel = *logLevel
	cfg.DragThreshold = *threshold
	cfg.RecoverActive = *recoverActive
	if flag.NArg() > 0 {
		cfg.BookPath = flag.Arg(0)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	book, err := loadBook(cfg.BookPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	a := app.New(app.Options{
		Store:         st,
		Resolver:      book,
		Logger:        logger,
		DragThreshold: cfg.DragThreshold,
		RetentionDays: cfg.RetentionDays,
		RecoverActive: cfg.RecoverActive,
	})

	g := &gui{
		ctx:       ctx,
		fyne:      fyneapp.NewWithID("com.github.metcalfc.folio"),
		app:       a,
		bookTitle: book.Title,
		windows:   make(map[string]*windowUI),
	}
	a.OnWindowOpened(g.open)
	g.fyne.Lifecycle().SetOnStopped(func() { a.Shutdown(ctx) })

	a.Start(ctx)
	g.fyne.Run()
}
