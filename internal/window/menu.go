package window

import "fmt"

// MenuAction is what a context menu entry does.
type MenuAction int

const (
	MenuMoveToNewWindow MenuAction = iota
	MenuMoveToWindow
	MenuCloseTab
)

// MenuItem is one entry of a tab's context menu.
type MenuItem struct {
	Label    string
	Action   MenuAction
	Tab      int
	TargetID string
	Enabled  bool
}

// newWindowOffset is where a window spawned from the menu appears, relative
// to the source window.
const newWindowOffset = 40

// ContextMenu lists the actions for tab i: moving it to a new window, moving
// it to each other open window with room, and closing it. Tab 0 gets only a
// disabled move entry.
func (w *Window) ContextMenu(i int) []MenuItem {
	if w.closed || i < 0 || i >= len(w.tabs) {
		return nil
	}

	movable := i != 0
	items := []MenuItem{{
		Label:   "Move to new window",
		Action:  MenuMoveToNewWindow,
		Tab:     i,
		Enabled: movable && len(w.tabs) > 1,
	}}

	if w.registry != nil {
		for n, other := range w.registry.List() {
			if other == w || !other.HasCapacity() {
				continue
			}
			items = append(items, MenuItem{
				Label:    fmt.Sprintf("Move to window %d", n+1),
				Action:   MenuMoveToWindow,
				Tab:      i,
				TargetID: other.ID(),
				Enabled:  movable,
			})
		}
	}

	if movable {
		items = append(items, MenuItem{
			Label:   "Close tab",
			Action:  MenuCloseTab,
			Tab:     i,
			Enabled: true,
		})
	}
	return items
}

// RunMenuItem performs a context menu entry. A target window that closed
// after the menu was built leaves the tab where it is.
func (w *Window) RunMenuItem(item MenuItem) bool {
	if !item.Enabled {
		return false
	}
	switch item.Action {
	case MenuMoveToNewWindow:
		hint := Point{X: w.bounds.X + newWindowOffset, Y: w.bounds.Y + newWindowOffset}
		return w.MoveTabToNewWindow(item.Tab, hint)
	case MenuMoveToWindow:
		return w.MoveTabToWindow(item.Tab, item.TargetID, Point{})
	case MenuCloseTab:
		return w.CloseTab(item.Tab)
	}
	return false
}
