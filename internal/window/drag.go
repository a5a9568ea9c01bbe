package window

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

type dragPhase int

const (
	dragIdle dragPhase = iota
	dragPressed
	dragDragging
)

type dragState struct {
	phase dragPhase
	tab   int
	start Point
}

// DropOutcome is the result of releasing a tab gesture.
type DropOutcome int

const (
	// DropNone leaves the tab where it was.
	DropNone DropOutcome = iota
	// DropTransferred moved the tab into another open window.
	DropTransferred
	// DropSpawned moved the tab into a new window.
	DropSpawned
)

func (o DropOutcome) String() string {
	switch o {
	case DropTransferred:
		return "transferred"
	case DropSpawned:
		return "spawned"
	}
	return "none"
}

// Dragging reports whether a tab is being dragged.
func (w *Window) Dragging() bool { return w.drag.phase == dragDragging }

// DraggedTab returns the tab under an armed or active gesture, or -1.
func (w *Window) DraggedTab() int {
	if w.drag.phase == dragIdle {
		return -1
	}
	return w.drag.tab
}

// PointerPressed handles a press on tab i at screen point p. A left press
// activates the tab and arms a drag; tab 0 never moves, so it is only
// activated. A right press returns the tab's context menu.
func (w *Window) PointerPressed(i int, b Button, p Point) []MenuItem {
	w.drag = dragState{}
	if w.closed || i < 0 || i >= len(w.tabs) {
		return nil
	}

	if b == ButtonRight {
		return w.ContextMenu(i)
	}

	if i != w.active {
		w.SetActiveTab(i)
	}
	if i != 0 {
		w.drag = dragState{phase: dragPressed, tab: i, start: p}
	}
	return nil
}

// PointerMoved tracks the pointer. The gesture becomes a drag once it has
// travelled further than the threshold from the press.
func (w *Window) PointerMoved(p Point) {
	if w.drag.phase == dragPressed && p.Distance(w.drag.start) > w.threshold {
		w.drag.phase = dragDragging
		w.logger.Debug().Int("tab", w.drag.tab).Msg("tab drag started")
	}
}

// PointerReleased ends the gesture at screen point p. Over another open
// window with room, the tab moves there. Over no window, and with more than
// one tab, the tab moves to a new window. Anything else leaves it in place.
func (w *Window) PointerReleased(p Point) DropOutcome {
	d := w.drag
	w.drag = dragState{}
	if w.closed || d.phase != dragDragging || d.tab <= 0 || d.tab >= len(w.tabs) {
		return DropNone
	}

	if w.registry == nil {
		return DropNone
	}

	if target := w.registry.FindWindowAt(p.X, p.Y, w); target != nil {
		if !target.HasCapacity() {
			return DropNone
		}
		if w.MoveTabToWindow(d.tab, target.ID(), p) {
			return DropTransferred
		}
		return DropNone
	}

	if w.bounds.Contains(p) || len(w.tabs) <= 1 {
		return DropNone
	}
	if w.MoveTabToNewWindow(d.tab, p) {
		return DropSpawned
	}
	return DropNone
}

// CancelDrag abandons any gesture in progress.
func (w *Window) CancelDrag() {
	w.drag = dragState{}
}

// MoveTabToWindow transfers tab i into the window targetID. The target adds
// the tab first and this window closes it afterwards; each side persists on
// its own.
func (w *Window) MoveTabToWindow(i int, targetID string, hint Point) bool {
	if w.closed || i <= 0 || i >= len(w.tabs) || targetID == "" || targetID == w.id || w.registry == nil {
		return false
	}
	return w.transfer(i, targetID, hint)
}

// MoveTabToNewWindow moves tab i into a freshly created window.
func (w *Window) MoveTabToNewWindow(i int, hint Point) bool {
	if w.closed || i <= 0 || i >= len(w.tabs) || len(w.tabs) <= 1 || w.registry == nil {
		return false
	}
	return w.transfer(i, "", hint)
}

func (w *Window) transfer(i int, targetID string, hint Point) bool {
	req := TransferRequest{
		SourceID: w.id,
		TabIndex: i,
		Page:     w.tabs[i].Page,
		TargetID: targetID,
		Hint:     hint,
	}
	if !w.registry.RequestTabTransfer(req) {
		return false
	}
	w.logger.Debug().Int("tab", i).Str("target", targetID).Msg("tab transferred")
	w.CloseTab(i)
	return true
}
