package wm

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// orphanSet holds the workspaces of a removed output until an output with the
// same name returns.
type orphanSet struct {
	workspaces []*Workspace
	active     int
}

// WorkspaceManager is the registry of outputs and their workspaces.
type WorkspaceManager struct {
	srv     *Server
	outputs []*Output
	focused *Output
	orphans map[string]*orphanSet
}

func newWorkspaceManager(srv *Server) *WorkspaceManager {
	return &WorkspaceManager{
		srv:     srv,
		orphans: make(map[string]*orphanSet),
	}
}

// Outputs returns the connected outputs in the order they were added.
func (m *WorkspaceManager) Outputs() []*Output {
	return slices.Clone(m.outputs)
}

// Output returns the output called name, or nil.
func (m *WorkspaceManager) Output(name string) *Output {
	for _, o := range m.outputs {
		if o.name == name {
			return o
		}
	}
	return nil
}

// Focused returns the output that receives new windows, or nil.
func (m *WorkspaceManager) Focused() *Output {
	return m.focused
}

// Focus makes o the focused output and focuses its active window.
func (m *WorkspaceManager) Focus(o *Output) {
	if o == nil || m.Output(o.name) != o || m.focused == o {
		return
	}
	m.focused = o
	var w *Window
	if o.active != nil {
		w = o.active.active
	}
	m.srv.focus(w)
	m.srv.notify(events.OutputsChanged)
}

// Orphaned returns the detached workspaces stored under name.
func (m *WorkspaceManager) Orphaned(name string) []*Workspace {
	set, ok := m.orphans[name]
	if !ok {
		return nil
	}
	return slices.Clone(set.workspaces)
}

// AddOutput registers an output. Workspaces orphaned by an earlier output of
// the same name are adopted; otherwise the initial workspaces are created and
// the first one is activated. Adding a known name updates its geometry.
func (m *WorkspaceManager) AddOutput(name string, layout, usable platform.Rect) *Output {
	if o := m.Output(name); o != nil {
		m.srv.txns.Batch(func(*txn.Transaction) {
			o.SetLayout(layout)
			o.SetUsable(usable)
		})
		return o
	}

	o := newOutput(m.srv, name, layout, usable)
	m.outputs = append(m.outputs, o)

	m.srv.txns.Batch(func(*txn.Transaction) {
		if !m.AdoptWorkspaces(o) {
			for n := 1; n <= m.srv.defaults.InitialWorkspaces; n++ {
				o.addWorkspace(newWorkspace(m.srv, n))
			}
			o.active = o.workspaces[0]
		}
		if m.focused == nil {
			m.focused = o
		}
		if ws := o.active; ws != nil {
			for _, w := range m.srv.unassigned() {
				ws.AddToplevel(w, false)
			}
		}
		o.show()
		if m.focused == o && o.active != nil && o.active.active != nil {
			m.srv.focus(o.active.active)
		}
	})

	m.srv.logger.Info("output added", "output", name, "layout", layout, "usable", o.usable,
		"workspaces", len(o.workspaces))
	m.srv.notify(events.OutputsChanged)
	return o
}

// RemoveOutput unregisters the output called name. Its workspaces are
// orphaned, not destroyed, and their windows are hidden.
func (m *WorkspaceManager) RemoveOutput(name string) bool {
	o := m.Output(name)
	if o == nil {
		return false
	}

	lostFocus := m.srv.focused != nil && m.srv.focused.workspace != nil &&
		m.srv.focused.workspace.output == o

	m.OrphanizeWorkspaces(o)
	m.outputs = slices.DeleteFunc(m.outputs, func(e *Output) bool { return e == o })
	o.enabled = false

	if m.focused == o {
		m.focused = nil
		if len(m.outputs) > 0 {
			m.Focus(m.outputs[0])
		}
	}
	if lostFocus && (m.srv.focused == nil || m.srv.focused.workspace == nil || m.srv.focused.workspace.output == nil) {
		m.srv.clearFocus()
	}

	m.srv.logger.Info("output removed", "output", name, "orphaned", len(m.Orphaned(name)))
	m.srv.notify(events.OutputsChanged)
	return true
}

// OrphanizeWorkspaces detaches every workspace of o and stores them, with the
// active workspace number, under o's name.
func (m *WorkspaceManager) OrphanizeWorkspaces(o *Output) {
	if o == nil {
		return
	}

	set, ok := m.orphans[o.name]
	if !ok {
		set = &orphanSet{}
		m.orphans[o.name] = set
	}
	if o.active != nil {
		set.active = o.active.number
	}

	for _, ws := range o.workspaces {
		ws.output = nil
		for _, w := range ws.windows {
			w.setHidden(true)
		}
		set.workspaces = append(set.workspaces, ws)
	}
	o.workspaces = nil
	o.active = nil

	m.srv.notify(events.WorkspacesChanged)
}

// AdoptWorkspaces reattaches the workspaces stored under o's name and
// restores the active workspace number. It reports false when there is
// nothing to adopt.
func (m *WorkspaceManager) AdoptWorkspaces(o *Output) bool {
	if o == nil {
		return false
	}
	set, ok := m.orphans[o.name]
	if !ok {
		return false
	}
	delete(m.orphans, o.name)

	for _, ws := range set.workspaces {
		if existing := o.Workspace(ws.number); existing != nil {
			for _, w := range ws.Windows() {
				ws.detach(w)
				existing.attach(w)
			}
			continue
		}
		o.addWorkspace(ws)
	}

	o.active = o.Workspace(set.active)
	if o.active == nil && len(o.workspaces) > 0 {
		o.active = o.workspaces[0]
	}
	if o.active == nil {
		o.active = newWorkspace(m.srv, 1)
		o.addWorkspace(o.active)
	}
	o.show()

	m.srv.logger.Debug("workspaces adopted", "output", o.name, "count", len(set.workspaces), "active", o.active.number)
	m.srv.notify(events.WorkspacesChanged)
	return true
}
