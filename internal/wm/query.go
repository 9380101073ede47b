package wm

import "github.com/1broseidon/tilewm/internal/platform"

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID         uint32 `json:"id"`
	UUID       string `json:"uuid"`
	Title      string `json:"title"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Workspace  int    `json:"workspace"`
	Output     string `json:"output,omitempty"`
	Focused    bool   `json:"focused"`
	Hidden     bool   `json:"hidden"`
	Maximized  bool   `json:"maximized"`
	Fullscreen bool   `json:"fullscreen"`
	Pinned     bool   `json:"pinned"`
}

// WorkspaceInfo describes one workspace. Active and Max refer to the owning
// output: its active workspace number and its highest workspace number.
type WorkspaceInfo struct {
	Output    string `json:"output"`
	Number    int    `json:"number"`
	Active    int    `json:"active"`
	Max       int    `json:"max"`
	Toplevels int    `json:"toplevels"`
	Mode      string `json:"mode"`
	AutoTile  bool   `json:"auto_tile"`
}

// RectInfo is a rectangle in query records.
type RectInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OutputInfo describes one output.
type OutputInfo struct {
	Name            string   `json:"name"`
	Enabled         bool     `json:"enabled"`
	X               int      `json:"x"`
	Y               int      `json:"y"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Usable          RectInfo `json:"usable"`
	ActiveWorkspace int      `json:"active_workspace"`
	Focused         bool     `json:"focused"`
}

// Snapshot is a consistent copy of the query surface. It shares no memory
// with the server and may be read from any goroutine.
type Snapshot struct {
	Windows       []WindowInfo    `json:"windows"`
	Workspaces    []WorkspaceInfo `json:"workspaces"`
	Outputs       []OutputInfo    `json:"outputs"`
	FocusedOutput string          `json:"focused_output,omitempty"`
	FocusedWindow uint32          `json:"focused_window,omitempty"`
	Transactions  uint64          `json:"transactions"`
	Pending       bool            `json:"pending"`
}

func rectInfo(r platform.Rect) RectInfo {
	return RectInfo{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Window returns the record for id.
func (s *Snapshot) Window(id uint32) (WindowInfo, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowInfo{}, false
}

// Snapshot copies the current state into query records.
func (s *Server) Snapshot() *Snapshot {
	snap := &Snapshot{
		Windows:      []WindowInfo{},
		Workspaces:   []WorkspaceInfo{},
		Outputs:      []OutputInfo{},
		Transactions: s.txns.Applies(),
		Pending:      s.txns.Active() != nil,
	}
	if o := s.outputs.Focused(); o != nil {
		snap.FocusedOutput = o.name
	}
	if s.focused != nil {
		snap.FocusedWindow = uint32(s.focused.id)
	}

	for _, w := range s.Windows() {
		info := WindowInfo{
			ID:         uint32(w.id),
			UUID:       w.uuid.String(),
			Title:      w.title,
			X:          w.geometry.X,
			Y:          w.geometry.Y,
			Width:      w.geometry.Width,
			Height:     w.geometry.Height,
			Focused:    w == s.focused,
			Hidden:     w.hidden,
			Maximized:  w.maximized,
			Fullscreen: w.fullscreen,
			Pinned:     w.pinned,
		}
		if ws := w.workspace; ws != nil {
			info.Workspace = ws.number
			if ws.output != nil {
				info.Output = ws.output.name
			}
		}
		snap.Windows = append(snap.Windows, info)
	}

	for _, o := range s.outputs.outputs {
		active, highest := 0, 0
		if o.active != nil {
			active = o.active.number
		}
		if n := len(o.workspaces); n > 0 {
			highest = o.workspaces[n-1].number
		}

		for _, ws := range o.workspaces {
			snap.Workspaces = append(snap.Workspaces, WorkspaceInfo{
				Output:    o.name,
				Number:    ws.number,
				Active:    active,
				Max:       highest,
				Toplevels: len(ws.windows),
				Mode:      ws.mode.String(),
				AutoTile:  ws.autoTile,
			})
		}

		snap.Outputs = append(snap.Outputs, OutputInfo{
			Name:            o.name,
			Enabled:         o.enabled,
			X:               o.layout.X,
			Y:               o.layout.Y,
			Width:           o.layout.Width,
			Height:          o.layout.Height,
			Usable:          rectInfo(o.usable),
			ActiveWorkspace: active,
			Focused:         o == s.outputs.focused,
		})
	}
	return snap
}
