package platform

import "fmt"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns width*height, or 0 for empty rectangles.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Extents are the decoration sizes around a window's client area.
type Extents struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// WindowActor is the surface layer the layout core drives. Implementations
// must be called from the event-loop goroutine only.
type WindowActor interface {
	// RequestResize asks the client to redraw at the given size and returns
	// the serial the acknowledgment will carry.
	RequestResize(id WindowID, width, height int) uint32
	Geometry(id WindowID) Rect
	SetEnabled(id WindowID, enabled bool)
	// IsMapped reports whether the client has the window mapped. Hiding a
	// window with SetEnabled does not unmap it in this sense.
	IsMapped(id WindowID) bool
}

// Decorated is implemented by actors that know server-side decoration sizes.
type Decorated interface {
	Extents(id WindowID) Extents
}

// Positioner is implemented by actors where the window position is pushed to
// the display server rather than kept in a compositor scene graph.
type Positioner interface {
	Move(id WindowID, x, y int)
}

// Shell receives focus and close requests from the core.
type Shell interface {
	Focus(id WindowID)
	ClearFocus()
	Close(id WindowID)
}

// DisplayLister enumerates the currently connected displays.
type DisplayLister interface {
	Displays() ([]Display, error)
}

// EventHandler receives window lifecycle events from a display backend.
// Calls arrive on the backend's event goroutine.
type EventHandler interface {
	// WindowMapped reports a new managed toplevel.
	WindowMapped(id WindowID, title string)
	// WindowUnmapped reports that a managed toplevel went away.
	WindowUnmapped(id WindowID)
	// WindowConfigured acknowledges a resize. serial is the serial of the
	// request the new size answers, or 0.
	WindowConfigured(id WindowID, serial uint32)
	WindowTitleChanged(id WindowID, title string)
}
