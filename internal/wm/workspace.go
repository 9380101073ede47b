package wm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Direction selects a neighbor for directional focus.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d Direction) valid() bool {
	return d >= DirLeft && d <= DirDown
}

// ParseDirection converts a user supplied name to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "h":
		return DirLeft, nil
	case "right", "r":
		return DirRight, nil
	case "up", "u", "k":
		return DirUp, nil
	case "down", "d", "j":
		return DirDown, nil
	default:
		return DirLeft, fmt.Errorf("invalid direction: %q", s)
	}
}

// Workspace is a numbered set of windows on one output.
type Workspace struct {
	srv    *Server
	number int
	// output is a non-owning back-reference; nil while orphaned.
	output *Output

	windows  []*Window
	active   *Window
	mode     tiling.Mode
	autoTile bool
	// fullscreen is the member currently holding fullscreen, if any.
	fullscreen *Window
	tree       *tiling.BSPTree
}

func newWorkspace(srv *Server, number int) *Workspace {
	return &Workspace{
		srv:      srv,
		number:   number,
		mode:     srv.defaults.Mode,
		autoTile: srv.defaults.AutoTile,
		tree:     tiling.NewBSPTree(),
	}
}

func (ws *Workspace) Number() int               { return ws.number }
func (ws *Workspace) Output() *Output           { return ws.output }
func (ws *Workspace) Active() *Window           { return ws.active }
func (ws *Workspace) Mode() tiling.Mode         { return ws.mode }
func (ws *Workspace) AutoTile() bool            { return ws.autoTile }
func (ws *Workspace) FullscreenWindow() *Window { return ws.fullscreen }

// Windows returns a copy of the member list in insertion order.
func (ws *Workspace) Windows() []*Window {
	return slices.Clone(ws.windows)
}

// Len returns the number of members.
func (ws *Workspace) Len() int { return len(ws.windows) }

// Tree exposes the workspace's BSP tree for inspection.
func (ws *Workspace) Tree() *tiling.BSPTree { return ws.tree }

// Visible reports whether ws is the active workspace of an output.
func (ws *Workspace) Visible() bool {
	return ws.output != nil && ws.output.active == ws
}

func (ws *Workspace) index(w *Window) int {
	return slices.Index(ws.windows, w)
}

// attach appends w to the member list without touching focus or layout. A
// fullscreen newcomer drops fullscreen when ws already has a holder.
func (ws *Workspace) attach(w *Window) {
	ws.windows = append(ws.windows, w)
	w.workspace = ws
	if w.fullscreen && ws.fullscreen != nil {
		w.fullscreen = false
		if !w.maximized {
			ws.srv.txns.Batch(func(tx *txn.Transaction) { ws.restore(tx, w) })
		}
	}
	if w.fullscreen {
		ws.fullscreen = w
	} else {
		ws.tree.Insert(w.id)
	}
	w.setHidden(!ws.Visible())
}

// detach removes w from the member list and the tree. If w was active, the
// next member (or the previous one at the end of the list) becomes active.
func (ws *Workspace) detach(w *Window) {
	i := ws.index(w)
	if i < 0 {
		return
	}
	ws.windows = slices.Delete(ws.windows, i, i+1)
	ws.tree.Remove(w.id)
	if ws.fullscreen == w {
		ws.fullscreen = nil
	}
	if ws.active == w {
		ws.active = nil
		if n := len(ws.windows); n > 0 {
			ws.active = ws.windows[min(i, n-1)]
		}
	}
	w.workspace = nil
}

// AddToplevel makes w a member and the active window. A window belongs to at
// most one workspace, so w is detached from its previous one first.
func (ws *Workspace) AddToplevel(w *Window, focus bool) {
	if w == nil || w.workspace == ws {
		return
	}
	ws.srv.txns.Batch(func(*txn.Transaction) {
		if prev := w.workspace; prev != nil {
			prev.detach(w)
			prev.retile()
		}
		ws.attach(w)
		ws.active = w
		if focus && ws.Visible() {
			ws.srv.focus(w)
		}
		ws.fit(w)
		ws.retile()
	})
	ws.srv.notify(events.WorkspacesChanged)
}

// RemoveToplevel drops an unmapped window from the workspace.
func (ws *Workspace) RemoveToplevel(w *Window) {
	if w == nil || w.workspace != ws {
		return
	}
	wasActive := ws.active == w

	ws.detach(w)
	ws.srv.txns.RemoveWindow(w.id)

	if wasActive && ws.Visible() {
		ws.srv.focus(ws.active)
	}
	ws.retile()
	ws.srv.notify(events.WorkspacesChanged)
}

// Close asks the client of w to close. Focus moves on first so it never
// points at a closing window.
func (ws *Workspace) Close(w *Window) {
	if w == nil || w.workspace != ws {
		return
	}
	if ws.active == w {
		if len(ws.windows) > 1 {
			ws.FocusNext()
		} else {
			ws.active = nil
			if ws.Visible() {
				ws.srv.clearFocus()
			}
		}
	}
	ws.srv.shell.Close(w.id)
}

// CloseActive closes the active window, if any.
func (ws *Workspace) CloseActive() {
	if ws.active != nil {
		ws.Close(ws.active)
	}
}

// MoveTo moves w to target. It fails without side effects when target is ws,
// target holds a fullscreen window, or w is not a member.
func (ws *Workspace) MoveTo(w *Window, target *Workspace) bool {
	if w == nil || target == nil || target == ws || target.fullscreen != nil || w.workspace != ws {
		return false
	}

	wasActive := ws.active == w
	ws.srv.txns.Batch(func(*txn.Transaction) {
		ws.detach(w)
		if wasActive && ws.Visible() {
			ws.srv.focus(ws.active)
		}

		target.attach(w)
		target.active = w
		target.fit(w)
		if target.Visible() && ws.srv.outputs.Focused() == target.output {
			ws.srv.focus(w)
		}

		ws.retile()
		target.retile()
	})

	ws.srv.logger.Debug("window moved", "window", w.id, "from", ws.number, "to", target.number)
	ws.srv.notify(events.WorkspacesChanged)
	return true
}

// InDirection returns the nearest member in dir from the active window, or
// nil. Only members strictly in dir qualify; the smallest displacement along
// dir wins, then the smallest offset across it, then list order.
//
// InDirection panics if dir is not one of the Dir constants.
func (ws *Workspace) InDirection(dir Direction) *Window {
	if !dir.valid() {
		panic(fmt.Sprintf("wm: invalid direction %d", int(dir)))
	}
	if len(ws.windows) < 2 || ws.active == nil {
		return nil
	}

	from := ws.active.geometry
	var (
		best                   *Window
		bestPrimary, bestCross int
	)
	for _, w := range ws.windows {
		if w == ws.active {
			continue
		}
		g := w.geometry

		var primary, cross int
		switch dir {
		case DirLeft:
			primary, cross = from.X-g.X, abs(g.Y-from.Y)
		case DirRight:
			primary, cross = g.X-from.X, abs(g.Y-from.Y)
		case DirUp:
			primary, cross = from.Y-g.Y, abs(g.X-from.X)
		case DirDown:
			primary, cross = g.Y-from.Y, abs(g.X-from.X)
		}
		if primary <= 0 {
			continue
		}
		if best == nil || primary < bestPrimary || (primary == bestPrimary && cross < bestCross) {
			best, bestPrimary, bestCross = w, primary, cross
		}
	}
	return best
}

// Tile lays out the members that are not fullscreen, maximized, or in
// excluded. The changes join the open transaction, or go into a new one.
func (ws *Workspace) Tile(excluded ...*Window) {
	if ws.output == nil {
		return
	}

	skip := make(map[platform.WindowID]bool, len(excluded))
	for _, w := range excluded {
		if w != nil {
			skip[w.id] = true
		}
	}
	ignored := func(w *Window) bool {
		return w == nil || w.fullscreen || w.maximized || skip[w.id]
	}

	var members []*Window
	for _, w := range ws.windows {
		if !ignored(w) {
			members = append(members, w)
		}
	}
	if len(members) == 0 {
		return
	}

	area := ws.output.usable
	var placements []tiling.Placement
	if ws.mode == tiling.ModeBSP {
		placements = ws.tree.ApplyLayout(area, func(id platform.WindowID) bool {
			return ignored(ws.srv.windows[id])
		})
	} else {
		tiles := make([]tiling.Tile, len(members))
		for i, w := range members {
			tiles[i] = tiling.Tile{ID: w.id, Current: w.geometry}
		}
		var err error
		placements, err = tiling.Layout(ws.mode, area, tiles)
		if err != nil {
			ws.srv.logger.Error("tiling failed", "workspace", ws.number, "mode", ws.mode, "error", err)
			return
		}
	}

	ws.srv.txns.Batch(func(tx *txn.Transaction) {
		for _, p := range placements {
			w := ws.srv.windows[p.ID]
			if w == nil || p.Rect.Empty() {
				continue
			}
			tx.AddChange(w, p.Rect)
		}
	})
	ws.srv.logger.Debug("workspace tiled", "workspace", ws.number, "mode", ws.mode,
		"windows", len(placements), "area", area)
}

func (ws *Workspace) retile() {
	if ws.autoTile {
		ws.Tile()
	}
}

// Focus makes w the active window and gives it keyboard focus when the
// workspace is visible.
func (ws *Workspace) Focus(w *Window) {
	if w == nil || w.workspace != ws {
		return
	}
	ws.active = w
	if ws.Visible() {
		ws.srv.focus(w)
	}
}

// FocusNext focuses the member after the active one, wrapping at the end.
func (ws *Workspace) FocusNext() {
	ws.cycle(1)
}

// FocusPrev focuses the member before the active one, wrapping at the start.
func (ws *Workspace) FocusPrev() {
	ws.cycle(-1)
}

func (ws *Workspace) cycle(step int) {
	n := len(ws.windows)
	if n == 0 {
		return
	}
	i := ws.index(ws.active)
	if i < 0 {
		ws.Focus(ws.windows[0])
		return
	}
	ws.Focus(ws.windows[(i+step+n)%n])
}

// SetTilingMode switches the layout algorithm. Entering BSP rebuilds the tree
// from the member list so insertion order seeds the balance.
func (ws *Workspace) SetTilingMode(mode tiling.Mode) {
	if ws.mode == mode {
		return
	}
	ws.mode = mode
	if mode == tiling.ModeBSP {
		ws.rebuildTree()
	}
	ws.retile()
	ws.srv.notify(events.WorkspacesChanged)
}

func (ws *Workspace) rebuildTree() {
	ids := make([]platform.WindowID, 0, len(ws.windows))
	for _, w := range ws.windows {
		if !w.fullscreen {
			ids = append(ids, w.id)
		}
	}
	ws.tree.Rebuild(ids)
}

func (ws *Workspace) SetAutoTile(on bool) {
	if ws.autoTile == on {
		return
	}
	ws.autoTile = on
	ws.retile()
	ws.srv.notify(events.WorkspacesChanged)
}

// Resize handles an interactive resize of w to geo. In BSP mode the parent
// ratio is solved from geo and the workspace is retiled; otherwise geo is
// applied to w alone.
func (ws *Workspace) Resize(w *Window, geo platform.Rect) bool {
	if w == nil || w.workspace != ws || geo.Empty() {
		return false
	}
	if ws.mode == tiling.ModeBSP && !w.fullscreen && !w.maximized {
		if !ws.tree.HandleResize(w.id, geo) {
			return false
		}
		ws.Tile()
		return true
	}
	ws.srv.txns.Batch(func(tx *txn.Transaction) {
		tx.AddChange(w, geo)
	})
	return true
}

// SetMaximized maximizes w to the usable area or restores it.
func (ws *Workspace) SetMaximized(w *Window, on bool) bool {
	if w == nil || w.workspace != ws || w.maximized == on {
		return false
	}
	ws.srv.txns.Batch(func(tx *txn.Transaction) {
		if on {
			w.save()
			w.maximized = true
			if !w.fullscreen && ws.output != nil {
				tx.AddChange(w, ws.output.usable)
			}
		} else {
			w.maximized = false
			if !w.fullscreen {
				ws.restore(tx, w)
			}
		}
		ws.retile()
	})
	ws.srv.notify(events.WindowsChanged)
	return true
}

// SetFullscreen gives w the whole output layout geometry or restores it. A
// workspace holds at most one fullscreen window; an earlier holder is
// restored first.
func (ws *Workspace) SetFullscreen(w *Window, on bool) bool {
	if w == nil || w.workspace != ws || w.fullscreen == on {
		return false
	}
	ws.srv.txns.Batch(func(tx *txn.Transaction) {
		if on {
			if prev := ws.fullscreen; prev != nil {
				ws.SetFullscreen(prev, false)
			}
			w.save()
			w.fullscreen = true
			ws.fullscreen = w
			ws.tree.Remove(w.id)
			ws.fit(w)
		} else {
			w.fullscreen = false
			if ws.fullscreen == w {
				ws.fullscreen = nil
			}
			ws.tree.Insert(w.id)
			if w.maximized {
				if ws.output != nil {
					tx.AddChange(w, ws.output.usable)
				}
			} else {
				ws.restore(tx, w)
			}
		}
		ws.retile()
	})
	ws.srv.notify(events.WindowsChanged)
	return true
}

// fit gives a fullscreen w the output layout geometry and a maximized w the
// usable area. Other members are left to the tiling pass.
func (ws *Workspace) fit(w *Window) {
	if ws.output == nil {
		return
	}
	var r platform.Rect
	switch {
	case w.fullscreen:
		r = ws.output.layout
	case w.maximized:
		r = ws.output.usable
	default:
		return
	}
	ws.srv.txns.Batch(func(tx *txn.Transaction) {
		tx.AddChange(w, r)
	})
}

// refit re-applies fit to every member after the output geometry changed.
func (ws *Workspace) refit() {
	for _, w := range ws.windows {
		ws.fit(w)
	}
}

// restore returns w to its saved geometry when the workspace does not tile
// it anyway.
func (ws *Workspace) restore(tx *txn.Transaction, w *Window) {
	if ws.autoTile || !w.hasSaved {
		return
	}
	tx.AddChange(w, w.saved)
	w.hasSaved = false
}

// SetPinned marks w to follow its output across workspace switches.
func (ws *Workspace) SetPinned(w *Window, on bool) bool {
	if w == nil || w.workspace != ws || w.pinned == on {
		return false
	}
	w.pinned = on
	ws.srv.notify(events.WindowsChanged)
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
