package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Handlers receives root substructure events. Callbacks run on the
// EventLoop goroutine; nil callbacks are skipped.
type Handlers struct {
	MapRequest func(win xproto.Window)
	Mapped     func(win xproto.Window, overrideRedirect bool)
	Unmapped   func(win xproto.Window)
	Destroyed  func(win xproto.Window)
	Configured func(win xproto.Window, x, y, width, height int)
	Title      func(win xproto.Window)
}

// Listen connects h to the root window. SelectRootEvents must have been
// called first.
func (c *Connection) Listen(h Handlers) {
	xu := c.XUtil

	xevent.MapRequestFun(func(_ *xgbutil.XUtil, ev xevent.MapRequestEvent) {
		if h.MapRequest != nil {
			h.MapRequest(ev.Window)
		}
	}).Connect(xu, c.Root)

	xevent.MapNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		if h.Mapped != nil {
			h.Mapped(ev.Window, ev.OverrideRedirect)
		}
	}).Connect(xu, c.Root)

	xevent.UnmapNotifyFun(func(_ *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		if h.Unmapped != nil {
			h.Unmapped(ev.Window)
		}
	}).Connect(xu, c.Root)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		xevent.Detach(xu, ev.Window)
		if h.Destroyed != nil {
			h.Destroyed(ev.Window)
		}
	}).Connect(xu, c.Root)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window == c.Root || h.Configured == nil {
			return
		}
		h.Configured(ev.Window, int(ev.X), int(ev.Y), int(ev.Width), int(ev.Height))
	}).Connect(xu, c.Root)

	if c.managing {
		// Clients expect their own configure requests to be honoured until
		// the next layout pass overrides them.
		xevent.ConfigureRequestFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
			xproto.ConfigureWindow(xu.Conn(), ev.Window, ev.ValueMask&(xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight),
				configureValues(ev))
		}).Connect(xu, c.Root)
	}

	c.title = h.Title
}

// WatchTitle delivers title changes of win to the Title handler.
func (c *Connection) WatchTitle(win xproto.Window) {
	if c.title == nil {
		return
	}
	c.WatchProperties(win)
	notify := c.title
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		if name == "_NET_WM_NAME" || name == "WM_NAME" {
			notify(ev.Window)
		}
	}).Connect(c.XUtil, win)
}

// Forget drops every callback attached to win.
func (c *Connection) Forget(win xproto.Window) {
	xevent.Detach(c.XUtil, win)
}

func configureValues(ev xevent.ConfigureRequestEvent) []uint32 {
	var values []uint32
	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(int32(ev.X)))
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(int32(ev.Y)))
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(ev.Width))
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		values = append(values, uint32(ev.Height))
	}
	return values
}
