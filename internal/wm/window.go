package wm

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Window is a managed toplevel. Windows are created by Server.MapWindow and
// destroyed by Server.UnmapWindow.
type Window struct {
	srv  *Server
	id   platform.WindowID
	uuid uuid.UUID

	title    string
	geometry platform.Rect
	pending  platform.Rect
	saved    platform.Rect
	hasSaved bool

	maximized  bool
	fullscreen bool
	hidden     bool
	pinned     bool
	destroyed  bool

	// workspace is a non-owning back-reference; nil while unassigned.
	workspace *Workspace
}

var _ txn.Window = (*Window)(nil)

func newWindow(srv *Server, id platform.WindowID, title string) *Window {
	return &Window{
		srv:      srv,
		id:       id,
		uuid:     uuid.New(),
		title:    title,
		geometry: srv.actor.Geometry(id),
	}
}

func (w *Window) ID() platform.WindowID { return w.id }

// UUID is the identity exposed to query clients. It is never reused.
func (w *Window) UUID() uuid.UUID { return w.uuid }

func (w *Window) Title() string                  { return w.title }
func (w *Window) Geometry() platform.Rect        { return w.geometry }
func (w *Window) PendingGeometry() platform.Rect { return w.pending }
func (w *Window) Maximized() bool                { return w.maximized }
func (w *Window) Fullscreen() bool               { return w.fullscreen }
func (w *Window) Hidden() bool                   { return w.hidden }
func (w *Window) Pinned() bool                   { return w.pinned }
func (w *Window) Destroyed() bool                { return w.destroyed }
func (w *Window) Workspace() *Workspace          { return w.workspace }

// SetPendingGeometry records the target sent to the client on commit.
func (w *Window) SetPendingGeometry(r platform.Rect) {
	w.pending = r
}

// ApplyGeometry makes r the visible geometry. Called by the transaction
// that owns the change.
func (w *Window) ApplyGeometry(r platform.Rect) {
	w.geometry = r
}

// Focused reports whether w holds keyboard focus.
func (w *Window) Focused() bool {
	return w.srv.focused == w
}

func (w *Window) setHidden(hidden bool) {
	if w.hidden == hidden {
		return
	}
	w.hidden = hidden
	w.srv.actor.SetEnabled(w.id, !hidden)
}

// save snapshots the current geometry before the first of maximize or
// fullscreen takes effect.
func (w *Window) save() {
	if w.maximized || w.fullscreen {
		return
	}
	w.saved = w.geometry
	w.hasSaved = true
}
