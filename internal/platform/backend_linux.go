//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/tilewm/internal/x11"
)

// LinuxBackend drives X11 windows for the layout core. Actor and Shell
// methods run on the event-loop goroutine; X event callbacks run on the X
// event goroutine, so shared window state is guarded by mu.
type LinuxBackend struct {
	conn   *x11.Connection
	logger *slog.Logger

	mu        sync.Mutex
	serial    uint32
	requested map[WindowID]resizeRequest
	geometry  map[WindowID]Rect
	managed   map[WindowID]bool
	// hiding counts unmaps issued by SetEnabled whose UnmapNotify must not
	// be taken as the client withdrawing.
	hiding map[WindowID]int
}

type resizeRequest struct {
	serial uint32
	width  int
	height int
}

var (
	_ WindowActor   = (*LinuxBackend)(nil)
	_ Decorated     = (*LinuxBackend)(nil)
	_ Positioner    = (*LinuxBackend)(nil)
	_ Shell         = (*LinuxBackend)(nil)
	_ DisplayLister = (*LinuxBackend)(nil)
)

// NewLinuxBackend wraps an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{
		conn:      conn,
		logger:    logger,
		requested: make(map[WindowID]resizeRequest),
		geometry:  make(map[WindowID]Rect),
		managed:   make(map[WindowID]bool),
		hiding:    make(map[WindowID]int),
	}
}

// NewLinuxBackendFromDisplay opens display ($DISPLAY when empty).
func NewLinuxBackendFromDisplay(display string, logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, logger), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection exposes the X11 connection for collaborators such as key
// grabbing that work directly on the root window.
func (b *LinuxBackend) Connection() *x11.Connection { return b.conn }

// Managing reports whether the backend owns window management on the root.
func (b *LinuxBackend) Managing() bool { return b.conn.Managing() }

// Start subscribes to root events, reports already-mapped toplevels to h and
// then pumps X events until ctx is cancelled.
func (b *LinuxBackend) Start(ctx context.Context, h EventHandler) error {
	if err := b.conn.SelectRootEvents(); err != nil {
		return err
	}
	if !b.conn.Managing() {
		b.logger.Warn("another window manager owns the display; cooperating")
	}

	b.conn.Listen(x11.Handlers{
		MapRequest: func(win xproto.Window) { b.conn.Map(win) },
		Mapped: func(win xproto.Window, overrideRedirect bool) {
			if !overrideRedirect {
				b.adopt(win, h)
			}
		},
		Unmapped:  func(win xproto.Window) { b.withdrawn(win, h, false) },
		Destroyed: func(win xproto.Window) { b.withdrawn(win, h, true) },
		Configured: func(win xproto.Window, x, y, width, height int) {
			b.configured(win, Rect{X: x, Y: y, Width: width, Height: height}, h)
		},
		Title: func(win xproto.Window) {
			if b.isManaged(WindowID(win)) {
				h.WindowTitleChanged(WindowID(win), b.conn.Title(win))
			}
		},
	})

	existing, err := b.conn.TopLevels()
	if err != nil {
		b.logger.Warn("failed to list existing windows", "error", err)
	}
	for _, win := range existing {
		viewable, overrideRedirect, ok := b.conn.Attributes(win)
		if ok && viewable && !overrideRedirect {
			b.adopt(win, h)
		}
	}

	go func() {
		<-ctx.Done()
		b.conn.Quit()
	}()
	b.conn.EventLoop()
	return nil
}

func (b *LinuxBackend) adopt(win xproto.Window, h EventHandler) {
	id := WindowID(win)
	if !b.conn.IsNormalWindow(win) {
		return
	}

	b.mu.Lock()
	already := b.managed[id]
	b.managed[id] = true
	b.mu.Unlock()
	if already {
		// Re-shown by SetEnabled.
		return
	}

	if x, y, w, hgt, ok := b.conn.Geometry(win); ok {
		b.mu.Lock()
		b.geometry[id] = Rect{X: x, Y: y, Width: w, Height: hgt}
		b.mu.Unlock()
	}
	b.conn.WatchTitle(win)
	h.WindowMapped(id, b.conn.Title(win))
}

func (b *LinuxBackend) withdrawn(win xproto.Window, h EventHandler, destroyed bool) {
	id := WindowID(win)

	b.mu.Lock()
	if !destroyed && b.hiding[id] > 0 {
		b.hiding[id]--
		b.mu.Unlock()
		return
	}
	managed := b.managed[id]
	delete(b.managed, id)
	delete(b.hiding, id)
	delete(b.geometry, id)
	delete(b.requested, id)
	b.mu.Unlock()

	if !managed {
		return
	}
	if !destroyed {
		b.conn.Forget(win)
	}
	h.WindowUnmapped(id)
}

func (b *LinuxBackend) configured(win xproto.Window, geo Rect, h EventHandler) {
	id := WindowID(win)

	b.mu.Lock()
	if !b.managed[id] {
		b.mu.Unlock()
		return
	}
	b.geometry[id] = geo
	var serial uint32
	if req, ok := b.requested[id]; ok && req.width == geo.Width && req.height == geo.Height {
		serial = req.serial
	}
	b.mu.Unlock()

	h.WindowConfigured(id, serial)
}

func (b *LinuxBackend) isManaged(id WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.managed[id]
}

// RequestResize sends a ConfigureWindow with the new size. X11 has no
// configure serials, so serials are sequenced locally and echoed back when a
// ConfigureNotify reports the requested size.
func (b *LinuxBackend) RequestResize(id WindowID, width, height int) uint32 {
	b.mu.Lock()
	b.serial++
	serial := b.serial
	b.requested[id] = resizeRequest{serial: serial, width: width, height: height}
	b.mu.Unlock()

	b.conn.Resize(xproto.Window(id), width, height)
	return serial
}

func (b *LinuxBackend) Geometry(id WindowID) Rect {
	b.mu.Lock()
	geo, ok := b.geometry[id]
	b.mu.Unlock()
	if ok {
		return geo
	}
	x, y, w, h, ok := b.conn.Geometry(xproto.Window(id))
	if !ok {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// SetEnabled maps or unmaps the window for workspace switches.
func (b *LinuxBackend) SetEnabled(id WindowID, enabled bool) {
	win := xproto.Window(id)
	viewable, _, ok := b.conn.Attributes(win)
	if !ok || viewable == enabled {
		return
	}
	if enabled {
		b.conn.Map(win)
		return
	}
	b.mu.Lock()
	b.hiding[id]++
	b.mu.Unlock()
	b.conn.Unmap(win)
}

// IsMapped reports whether the client still has id mapped. Windows unmapped
// by SetEnabled stay mapped here so their pending geometry is still applied.
func (b *LinuxBackend) IsMapped(id WindowID) bool {
	return b.isManaged(id)
}

func (b *LinuxBackend) Extents(id WindowID) Extents {
	left, right, top, bottom := b.conn.FrameExtents(xproto.Window(id))
	return Extents{Left: left, Right: right, Top: top, Bottom: bottom}
}

func (b *LinuxBackend) Move(id WindowID, x, y int) {
	b.conn.Move(xproto.Window(id), x, y)
}

func (b *LinuxBackend) Focus(id WindowID) {
	if err := b.conn.FocusWindow(xproto.Window(id)); err != nil {
		b.logger.Debug("focus failed", "window", id, "error", err)
	}
}

func (b *LinuxBackend) ClearFocus() {
	if err := b.conn.ClearFocus(); err != nil {
		b.logger.Debug("clear focus failed", "error", err)
	}
}

func (b *LinuxBackend) Close(id WindowID) {
	if err := b.conn.CloseWindow(xproto.Window(id)); err != nil {
		b.logger.Warn("close failed", "window", id, "error", err)
	}
}

// Displays returns all active displays ordered by RandR CRTC index.
func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:     m.ID,
		Name:   m.Name,
		Bounds: Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
		Usable: Rect{X: m.UsableX, Y: m.UsableY, Width: m.UsableWidth, Height: m.UsableHeight},
	}
}
