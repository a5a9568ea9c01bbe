//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
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

const (
	headerRows    = 1
	footerRows    = 1
	tabWidth      = 12
	dropZoneWidth = 14

	// Terminal cells a tab must travel before a press becomes a drag.
	defaultCellDragThreshold = 3.0
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	focusedTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFAA00")).
				Bold(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#444444")).
			Bold(true)

	draggingTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#FFAA00"))

	pageNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	pageTitleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#AAAAAA"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true)

	dropZoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Align(lipgloss.Center)

	dropZoneActiveStyle = dropZoneStyle.
				Foreground(lipgloss.Color("#FFAA00")).
				BorderForeground(lipgloss.Color("#FFAA00"))

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFAA00")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))
)

type mode int

const (
	modeNormal mode = iota
	modeMenu
	modeGoto
	modeNewTab
)

// menuEntry adapts a tab context menu item to the list widget.
type menuEntry struct {
	item window.MenuItem
}

func (e menuEntry) Title() string {
	if !e.item.Enabled {
		return e.item.Label + " (unavailable)"
	}
	return e.item.Label
}

func (e menuEntry) Description() string { return "" }
func (e menuEntry) FilterValue() string { return e.item.Label }

type model struct {
	app       *app.App
	ctx       context.Context
	bookTitle string
	width     int
	height    int

	mode       mode
	menu       list.Model
	menuWindow *window.Window
	gotoInput  textinput.Model

	// pressed is the window whose tab received the last left press.
	pressed *window.Window

	status   string
	isError  bool
	quitting bool
}

func newModel(ctx context.Context, a *app.App, bookTitle string) *model {
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("%d-%d", pagemap.MinPage, pagemap.MaxPage)
	ti.CharLimit = 3
	ti.Width = 6

	return &model{
		app:       a,
		ctx:       ctx,
		bookTitle: bookTitle,
		width:     80,
		height:    24,
		gotoInput: ti,
	}
}

func (m *model) Init() tea.Cmd {
	m.relayout()
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case tea.MouseMsg:
		if m.mode != modeNormal {
			return m, nil
		}
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeMenu:
			return m, m.updateMenu(msg)
		case modeGoto, modeNewTab:
			return m, m.updateGoto(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.setStatus("")
	w := m.app.Current()
	if w == nil {
		return m.quit()
	}

	switch msg.String() {
	case "left", "h":
		w.Back()
	case "right", "l":
		w.Forward()
	case "1", "2", "3":
		w.SetActiveTab(int(msg.Runes[0] - '1'))
	case "t":
		if !w.AddTab(w.LeftPage()) {
			m.setError(fmt.Sprintf("a window holds at most %d tabs", window.MaxTabs))
		}
	case "x":
		if !w.CloseTab(w.ActiveTab()) {
			m.setError("the first tab cannot be closed")
		}
	case "]":
		part, topic := currentTopic(w)
		if topic >= pagemap.TopicCount(part) && part < pagemap.Parts {
			m.app.Navigate(part+1, 1)
			break
		}
		m.app.Navigate(part, topic+1)
	case "[":
		part, topic := currentTopic(w)
		switch {
		case topic > 1:
			m.app.Navigate(part, topic-1)
		case part > 1:
			m.app.Navigate(part-1, pagemap.TopicCount(part-1))
		default:
			m.app.GoToPage(pagemap.ContentsPage)
		}
	case "p":
		m.app.Navigate(pagemap.PartOf(w.LeftPage())%pagemap.Parts+1, 1)
	case "c":
		m.app.GoToPage(pagemap.ContentsPage)
	case "g":
		m.mode = modeGoto
		m.gotoInput.SetValue("")
		return m.gotoInput.Focus()
	case "T":
		m.mode = modeNewTab
		m.gotoInput.SetValue("")
		return m.gotoInput.Focus()
	case "m":
		m.openMenu(w, w.ContextMenu(w.ActiveTab()))
	case "n":
		b := w.Bounds()
		m.app.NewWindow(nil, 0, b, false)
		m.relayout()
	case "tab":
		m.focusNext(w)
	case "w":
		last := m.app.Registry().Count() == 1
		m.app.CloseWindow(m.ctx, w)
		if last {
			m.quitting = true
			return tea.Quit
		}
		m.relayout()
	case "q", "Q", "ctrl+c":
		return m.quit()
	}
	return nil
}

func (m *model) quit() tea.Cmd {
	m.app.Shutdown(m.ctx)
	m.quitting = true
	return tea.Quit
}

// currentTopic returns the part shown in w and its topic, or topic 0 on the
// contents spread.
func currentTopic(w *window.Window) (part, topic int) {
	part = pagemap.PartOf(w.LeftPage())
	topic, _ = pagemap.TopicForLeftPage(part, w.LeftPage())
	return part, topic
}

func (m *model) focusNext(w *window.Window) {
	wins := m.app.Registry().List()
	for i, x := range wins {
		if x == w {
			m.app.Focus(wins[(i+1)%len(wins)])
			return
		}
	}
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	p := window.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch msg.Action {
	case tea.MouseActionPress:
		w, tab := m.hit(msg.X, msg.Y)
		if w == nil {
			return nil
		}
		m.app.Focus(w)
		if tab < 0 {
			return nil
		}

		var b window.Button
		switch msg.Button {
		case tea.MouseButtonLeft:
			b = window.ButtonLeft
		case tea.MouseButtonRight:
			b = window.ButtonRight
		default:
			return nil
		}
		if items := w.PointerPressed(tab, b, p); len(items) > 0 {
			m.openMenu(w, items)
			return nil
		}
		m.pressed = w

	case tea.MouseActionMotion:
		if m.pressed != nil {
			m.pressed.PointerMoved(p)
		}

	case tea.MouseActionRelease:
		if m.pressed == nil {
			return nil
		}
		outcome := m.pressed.PointerReleased(p)
		m.pressed = nil
		if outcome != window.DropNone {
			m.setStatus("tab " + outcome.String())
			m.relayout()
		}
	}
	return nil
}

// hit returns the window under a cell and the tab index there, or -1 when
// the cell is not on a tab.
func (m *model) hit(x, y int) (*window.Window, int) {
	w := m.app.Registry().FindWindowAt(float64(x), float64(y), nil)
	if w == nil {
		return nil, -1
	}
	b := w.Bounds()
	if y != int(b.Y)+1 {
		return w, -1
	}
	i := (x - int(b.X)) / tabWidth
	if i < 0 || i >= w.TabCount() {
		return w, -1
	}
	return w, i
}

func (m *model) openMenu(w *window.Window, items []window.MenuItem) {
	if len(items) == 0 {
		return
	}
	entries := make([]list.Item, len(items))
	for i, it := range items {
		entries[i] = menuEntry{item: it}
	}

	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)

	l := list.New(entries, d, 36, len(items)+4)
	l.Title = fmt.Sprintf("Tab %d", items[0].Tab+1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	m.menu = l
	m.menuWindow = w
	m.mode = modeMenu
}

func (m *model) updateMenu(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		m.closeMenu()
		return nil
	case "enter":
		entry, ok := m.menu.SelectedItem().(menuEntry)
		w := m.menuWindow
		m.closeMenu()
		if !ok || w == nil {
			return nil
		}
		if !w.RunMenuItem(entry.item) {
			m.setError(entry.item.Label + ": not possible")
			return nil
		}
		m.relayout()
		return nil
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return cmd
}

func (m *model) closeMenu() {
	m.mode = modeNormal
	m.menuWindow = nil
}

func (m *model) updateGoto(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.gotoInput.Blur()
		return nil
	case "enter":
		newTab := m.mode == modeNewTab
		m.mode = modeNormal
		m.gotoInput.Blur()
		page, err := pagemap.ParsePage(m.gotoInput.Value())
		if err != nil {
			m.setError(err.Error())
			return nil
		}
		if !newTab {
			m.app.GoToPage(page)
			return nil
		}
		if w := m.app.Current(); w != nil && !w.AddTab(page) {
			m.setError(fmt.Sprintf("a window holds at most %d tabs", window.MaxTabs))
		}
		return nil
	}

	var cmd tea.Cmd
	m.gotoInput, cmd = m.gotoInput.Update(msg)
	return cmd
}

func (m *model) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *model) setError(s string) {
	m.status = s
	m.isError = true
}

// relayout tiles the windows as columns left of the drop zone. Moving the
// windows must not change which one is current.
func (m *model) relayout() {
	wins := m.app.Registry().List()
	if len(wins) == 0 {
		return
	}
	cur := m.app.Current()

	colW := (m.width - dropZoneWidth) / len(wins)
	if colW < tabWidth+1 {
		colW = tabWidth + 1
	}
	h := m.height - headerRows - footerRows
	if h < 4 {
		h = 4
	}
	for i, w := range wins {
		w.SetBounds(window.Bounds{
			X:      float64(i * colW),
			Y:      headerRows,
			Width:  float64(colW - 1),
			Height: float64(h - 1),
		})
	}
	m.app.Focus(cur)
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}

	wins := m.app.Registry().List()
	cur := m.app.Current()
	h := m.height - headerRows - footerRows

	header := fmt.Sprintf("%s | %d window(s)", m.bookTitle, len(wins))
	if m.status != "" {
		st := m.status
		if m.isError {
			st = errorStyle.Render(st)
		}
		header += " | " + st
	}

	var body string
	if m.mode == modeMenu {
		body = lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, menuStyle.Render(m.menu.View()))
	} else {
		dragging := false
		cols := make([]string, 0, len(wins)+1)
		for i, w := range wins {
			cols = append(cols, renderWindow(i, w, w == cur))
			dragging = dragging || w.Dragging()
		}
		zone := dropZoneStyle
		if dragging {
			zone = dropZoneActiveStyle
		}
		cols = append(cols, zone.Width(dropZoneWidth-2).Height(h-2).Render("\nDrop a tab\nhere for a\nnew window"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	}

	footer := controlsStyle.Render("←/→: page  1-3: tab  t/x: add/close tab  T: tab at page  [/]: topic  p: part  g: go to  m: menu  n/w: window  tab: focus  q: quit")
	switch m.mode {
	case modeGoto:
		footer = "Go to page: " + m.gotoInput.View()
	case modeNewTab:
		footer = "New tab at page: " + m.gotoInput.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		lipgloss.NewStyle().Height(h).MaxHeight(h).Render(body),
		footer,
	)
}

func renderWindow(n int, w *window.Window, focused bool) string {
	b := w.Bounds()
	width := int(b.Width)
	height := int(b.Height) + 1

	ts := titleStyle
	marker := " "
	if focused {
		ts = focusedTitleStyle
		marker = "*"
	}

	var tabs []string
	for _, t := range w.Tabs() {
		st := tabStyle
		switch {
		case w.Dragging() && w.DraggedTab() == t.Index:
			st = draggingTabStyle
		case t.Index == w.ActiveTab():
			st = activeTabStyle
		}
		tabs = append(tabs, st.Width(tabWidth).MaxWidth(tabWidth).Render(fmt.Sprintf(" %d: p.%d", t.Index+1, t.Page)))
	}

	left, right := w.Spread()
	pageHeight := (height - 3) / 2
	if pageHeight < 1 {
		pageHeight = 1
	}

	lines := []string{
		ts.Render(fmt.Sprintf("%sWindow %d", marker, n+1)),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		renderPage(left, width, pageHeight),
		renderPage(right, width, pageHeight),
		topicLine(w),
	}
	return lipgloss.NewStyle().
		Width(width + 1).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

func renderPage(p content.Page, width, height int) string {
	parts := []string{pageNumberStyle.Render(fmt.Sprintf("p.%d", p.Number))}
	if p.Empty() {
		parts = append(parts, mutedStyle.Render("(blank)"))
	} else {
		if p.Title != "" {
			parts = append(parts, pageTitleStyle.Render(p.Title))
		}
		if p.Subtitle != "" {
			parts = append(parts, subtitleStyle.Render(p.Subtitle))
		}
		if body := strings.TrimSpace(p.Body); body != "" {
			parts = append(parts, body)
		}
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(parts, "\n"))
}

func topicLine(w *window.Window) string {
	part, topic := currentTopic(w)
	if topic == 0 {
		return mutedStyle.Render(fmt.Sprintf("Part %d | contents", part))
	}
	return mutedStyle.Render(fmt.Sprintf("Part %d | Topic %d/%d | %s",
		part, topic, pagemap.TopicCount(part), pagemap.TopicPageRangeLabel(part, topic, "")))
}

func main() {
	cfg := config.Load()

	threshold := flag.Float64("d", defaultCellDragThreshold, "Drag threshold in terminal cells")
	stateDir := flag.String("state", cfg.StateDir, "Directory for session files and the log")
	redisURL := flag.String("redis", cfg.RedisURL, "Redis URL for session storage (overrides -state)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	recoverActive := flag.Bool("recover", cfg.RecoverActive, "Reopen the last live window after a crash")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Folio - Multi-window Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  folio [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats: %s\n", strings.Join(content.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Previous/next spread\n")
		fmt.Fprintf(os.Stderr, "  1-3      Switch tab\n")
		fmt.Fprintf(os.Stderr, "  t / x    Open / close tab\n")
		fmt.Fprintf(os.Stderr, "  T        Open tab at page\n")
		fmt.Fprintf(os.Stderr, "  [ / ]    Previous/next topic\n")
		fmt.Fprintf(os.Stderr, "  p        Next part\n")
		fmt.Fprintf(os.Stderr, "  g        Go to page\n")
		fmt.Fprintf(os.Stderr, "  m        Tab menu (or right-click a tab)\n")
		fmt.Fprintf(os.Stderr, "  n / w    New / close window\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
		fmt.Fprintf(os.Stderr, "\nDrag a tab onto another window to move it, or onto the drop zone for a new window.\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("folio %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg.StateDir = *stateDir
	cfg.RedisURL = *redisURL
	cfg.LogLevel = *logLevel
	cfg.RecoverActive = *recoverActive
	if flag.NArg() > 0 {
		cfg.BookPath = flag.Arg(0)
	}

	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logFile, err := logging.OpenFile(filepath.Join(cfg.StateDir, "folio.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.New(logFile, cfg.LogLevel)

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
		DragThreshold: *threshold,
		RetentionDays: cfg.RetentionDays,
		RecoverActive: cfg.RecoverActive,
	})
	a.Start(ctx)

	p := tea.NewProgram(newModel(ctx, a, book.Title), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		logger.Error().Err(err).Msg("terminal program failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	a.Shutdown(ctx)
}
