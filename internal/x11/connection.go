package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// managing is set once substructure redirection on the root was granted.
	managing bool
	title    func(xproto.Window)
}

// NewConnection connects to display, or $DISPLAY when display is empty.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// EWMH and RandR extensions are initialized automatically by xgbutil
	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// SelectRootEvents subscribes to child window lifecycle on the root. It first
// asks for substructure redirection; when another window manager already owns
// it, the connection falls back to observing notifications only and Managing
// reports false.
func (c *Connection) SelectRootEvents() error {
	notify := uint32(xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange)
	redirect := notify | uint32(xproto.EventMaskSubstructureRedirect)

	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root, xproto.CwEventMask, []uint32{redirect}).Check()
	if err == nil {
		c.managing = true
		return nil
	}

	if err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root, xproto.CwEventMask, []uint32{notify}).Check(); err != nil {
		return fmt.Errorf("failed to select root events: %w", err)
	}
	c.managing = false
	return nil
}

// Managing reports whether this connection owns window management on the
// root rather than cooperating with another window manager.
func (c *Connection) Managing() bool { return c.managing }

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes EventLoop return.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
