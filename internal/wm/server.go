// Package wm is the workspace and output data model. A Server is the context
// object that owns every managed window, routes layout requests to the
// tiling engines, and hands the resulting geometry to the transaction
// manager. Nothing in this package is safe for concurrent use; all calls must
// come from the event-loop goroutine.
package wm

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Defaults are applied to every workspace the server creates.
type Defaults struct {
	Mode              tiling.Mode
	AutoTile          bool
	InitialWorkspaces int
	MaxWorkspaces     int
}

// DefaultDefaults returns the built-in workspace defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Mode:              tiling.ModeGrid,
		AutoTile:          true,
		InitialWorkspaces: 1,
		MaxWorkspaces:     10,
	}
}

// Server ties the window actor, the shell, and the transaction manager to the
// window, workspace and output registries.
type Server struct {
	actor    platform.WindowActor
	shell    platform.Shell
	txns     *txn.Manager
	sink     events.Sink
	logger   *slog.Logger
	defaults Defaults

	outputs *WorkspaceManager
	windows map[platform.WindowID]*Window
	focused *Window
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSink(sink events.Sink) Option {
	return func(s *Server) {
		if sink != nil {
			s.sink = sink
		}
	}
}

func WithDefaults(d Defaults) Option {
	return func(s *Server) {
		s.defaults = d
	}
}

// NewServer creates a server with no outputs and no windows.
func NewServer(actor platform.WindowActor, shell platform.Shell, txns *txn.Manager, opts ...Option) *Server {
	s := &Server{
		actor:    actor,
		shell:    shell,
		txns:     txns,
		sink:     events.Discard,
		logger:   slog.Default(),
		defaults: DefaultDefaults(),
		windows:  make(map[platform.WindowID]*Window),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shell == nil {
		s.shell = nopShell{}
	}
	s.defaults = normalizeDefaults(s.defaults)
	s.outputs = newWorkspaceManager(s)
	return s
}

func normalizeDefaults(d Defaults) Defaults {
	if d.MaxWorkspaces < 1 {
		d.MaxWorkspaces = 1
	}
	if d.InitialWorkspaces < 1 {
		d.InitialWorkspaces = 1
	}
	if d.InitialWorkspaces > d.MaxWorkspaces {
		d.InitialWorkspaces = d.MaxWorkspaces
	}
	return d
}

// Outputs returns the workspace manager.
func (s *Server) Outputs() *WorkspaceManager { return s.outputs }

// Transactions returns the transaction manager.
func (s *Server) Transactions() *txn.Manager { return s.txns }

// Defaults returns the workspace defaults currently in effect.
func (s *Server) Defaults() Defaults { return s.defaults }

// SetDefaults replaces the defaults and pushes the tiling mode and auto-tile
// flag to every existing workspace. Used on config reload.
func (s *Server) SetDefaults(d Defaults) {
	s.defaults = normalizeDefaults(d)
	s.txns.Batch(func(*txn.Transaction) {
		for _, ws := range s.allWorkspaces() {
			ws.SetAutoTile(s.defaults.AutoTile)
			ws.SetTilingMode(s.defaults.Mode)
		}
	})
	s.notify(events.WorkspacesChanged)
}

// Window returns the managed window with id, or nil.
func (s *Server) Window(id platform.WindowID) *Window {
	return s.windows[id]
}

// Windows returns every managed window ordered by id.
func (s *Server) Windows() []*Window {
	out := make([]*Window, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// FocusedWindow returns the window holding keyboard focus, or nil.
func (s *Server) FocusedWindow() *Window { return s.focused }

// ActiveWorkspace returns the active workspace of the focused output, or nil.
func (s *Server) ActiveWorkspace() *Workspace {
	o := s.outputs.Focused()
	if o == nil {
		return nil
	}
	return o.active
}

// MapWindow starts managing id and places it on the active workspace of the
// focused output. Mapping an already managed window returns it unchanged.
func (s *Server) MapWindow(id platform.WindowID, title string) *Window {
	if w, ok := s.windows[id]; ok {
		return w
	}

	w := newWindow(s, id, title)
	s.windows[id] = w
	s.logger.Debug("window mapped", "window", id, "uuid", w.uuid, "title", title)

	if ws := s.ActiveWorkspace(); ws != nil {
		ws.AddToplevel(w, true)
	} else {
		s.logger.Debug("no output available, window left unassigned", "window", id)
	}
	s.notify(events.WindowsChanged)
	return w
}

// UnmapWindow destroys the window for id and purges it from its workspace,
// the BSP tree and any in-flight transaction.
func (s *Server) UnmapWindow(id platform.WindowID) {
	w, ok := s.windows[id]
	if !ok {
		return
	}
	w.destroyed = true

	if ws := w.workspace; ws != nil {
		ws.RemoveToplevel(w)
	} else {
		s.txns.RemoveWindow(id)
	}
	if s.focused == w {
		s.focused = nil
	}
	delete(s.windows, id)

	s.logger.Debug("window unmapped", "window", id)
	s.notify(events.WindowsChanged)
}

// SetTitle updates the title of a managed window.
func (s *Server) SetTitle(id platform.WindowID, title string) {
	w, ok := s.windows[id]
	if !ok || w.title == title {
		return
	}
	w.title = title
	s.notify(events.WindowsChanged)
}

// HandleCommit forwards a client's resize acknowledgment to the active
// transaction.
func (s *Server) HandleCommit(id platform.WindowID, serial uint32) bool {
	return s.txns.HandleCommit(id, serial)
}

// MoveActiveTo moves the focused workspace's active window to workspace n of
// the same output, creating it if needed.
func (s *Server) MoveActiveTo(n int) bool {
	ws := s.ActiveWorkspace()
	if ws == nil || ws.active == nil {
		return false
	}
	target := ws.output.EnsureWorkspace(n)
	if target == nil {
		return false
	}
	return ws.MoveTo(ws.active, target)
}

// Retile lays out every visible workspace.
func (s *Server) Retile() {
	s.txns.Batch(func(*txn.Transaction) {
		for _, o := range s.outputs.outputs {
			if o.active != nil {
				o.active.Tile()
			}
		}
	})
}

func (s *Server) allWorkspaces() []*Workspace {
	var out []*Workspace
	for _, o := range s.outputs.outputs {
		out = append(out, o.workspaces...)
	}
	for _, set := range s.outputs.orphans {
		out = append(out, set.workspaces...)
	}
	return out
}

// unassigned returns mapped windows that have no workspace yet.
func (s *Server) unassigned() []*Window {
	var out []*Window
	for _, w := range s.Windows() {
		if w.workspace == nil {
			out = append(out, w)
		}
	}
	return out
}

func (s *Server) focus(w *Window) {
	if w == nil {
		s.clearFocus()
		return
	}
	s.focused = w
	s.shell.Focus(w.id)
	s.notify(events.WindowsChanged)
}

func (s *Server) clearFocus() {
	s.focused = nil
	s.shell.ClearFocus()
	s.notify(events.WindowsChanged)
}

func (s *Server) notify(c events.Change) {
	s.sink.Notify(c)
}

type nopShell struct{}

func (nopShell) Focus(platform.WindowID) {}
func (nopShell) ClearFocus()             {}
func (nopShell) Close(platform.WindowID) {}
