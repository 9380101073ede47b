package wm

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Output is one display and the workspaces it owns.
type Output struct {
	srv     *Server
	name    string
	enabled bool
	layout  platform.Rect
	usable  platform.Rect

	active *Workspace
	// workspaces is ordered by number.
	workspaces []*Workspace
}

func newOutput(srv *Server, name string, layout, usable platform.Rect) *Output {
	if usable.Empty() {
		usable = layout
	}
	return &Output{
		srv:     srv,
		name:    name,
		enabled: true,
		layout:  layout,
		usable:  usable,
	}
}

func (o *Output) Name() string             { return o.name }
func (o *Output) Enabled() bool            { return o.enabled }
func (o *Output) Layout() platform.Rect    { return o.layout }
func (o *Output) Usable() platform.Rect    { return o.usable }
func (o *Output) Active() *Workspace       { return o.active }
func (o *Output) Workspaces() []*Workspace { return slices.Clone(o.workspaces) }

// SetLayout updates the output geometry in global space and retiles.
func (o *Output) SetLayout(r platform.Rect) {
	if o.layout == r {
		return
	}
	o.layout = r
	o.srv.txns.Batch(func(*txn.Transaction) {
		if ws := o.active; ws != nil {
			ws.refit()
			ws.retile()
		}
	})
	o.srv.notify(events.OutputsChanged)
}

// SetUsable updates the area left after exclusive zones and retiles. An empty
// rectangle resets it to the layout geometry.
func (o *Output) SetUsable(r platform.Rect) {
	if r.Empty() {
		r = o.layout
	}
	if o.usable == r {
		return
	}
	o.usable = r
	if ws := o.active; ws != nil {
		o.srv.txns.Batch(func(*txn.Transaction) {
			ws.refit()
			ws.retile()
		})
	}
	o.srv.notify(events.OutputsChanged)
}

// Workspace returns workspace n, or nil if the output does not own it.
func (o *Output) Workspace(n int) *Workspace {
	for _, ws := range o.workspaces {
		if ws.number == n {
			return ws
		}
	}
	return nil
}

// EnsureWorkspace returns workspace n, creating it when n is within the
// configured maximum. It returns nil for out-of-range numbers.
func (o *Output) EnsureWorkspace(n int) *Workspace {
	if ws := o.Workspace(n); ws != nil {
		return ws
	}
	if n < 1 || n > o.srv.defaults.MaxWorkspaces {
		return nil
	}
	ws := newWorkspace(o.srv, n)
	o.addWorkspace(ws)
	o.srv.notify(events.WorkspacesChanged)
	return ws
}

func (o *Output) addWorkspace(ws *Workspace) {
	ws.output = o
	i, _ := slices.BinarySearchFunc(o.workspaces, ws.number, func(e *Workspace, n int) int {
		return e.number - n
	})
	o.workspaces = slices.Insert(o.workspaces, i, ws)
}

// SetWorkspace switches to workspace n, creating it if needed.
func (o *Output) SetWorkspace(n int) bool {
	ws := o.EnsureWorkspace(n)
	if ws == nil {
		return false
	}
	return o.SetWorkspaceRef(ws)
}

// SetWorkspaceRef switches to ws, which must belong to o. The outgoing
// workspace's windows are hidden except pinned ones, which move along. It
// reports false if nothing changed.
func (o *Output) SetWorkspaceRef(ws *Workspace) bool {
	if ws == nil || ws.output != o || o.active == ws {
		return false
	}
	prev := o.active

	o.srv.txns.Batch(func(*txn.Transaction) {
		var pinned []*Window
		if prev != nil {
			for _, w := range prev.windows {
				if w.pinned {
					pinned = append(pinned, w)
				} else {
					w.setHidden(true)
				}
			}
		}

		o.active = ws
		for _, w := range pinned {
			prev.detach(w)
			ws.attach(w)
			if ws.active == nil {
				ws.active = w
			}
		}
		for _, w := range ws.windows {
			w.setHidden(false)
		}

		if o.srv.outputs.Focused() == o {
			o.srv.focus(ws.active)
		}

		if prev != nil && len(pinned) > 0 {
			prev.retile()
		}
		ws.retile()
	})

	o.srv.logger.Debug("workspace switched", "output", o.name, "workspace", ws.number)
	o.srv.notify(events.WorkspacesChanged)
	return true
}

// show reveals the active workspace, refits and retiles it.
func (o *Output) show() {
	for _, ws := range o.workspaces {
		visible := ws == o.active
		for _, w := range ws.windows {
			w.setHidden(!visible)
		}
	}
	if ws := o.active; ws != nil {
		o.srv.txns.Batch(func(*txn.Transaction) {
			ws.refit()
			ws.retile()
		})
	}
}
