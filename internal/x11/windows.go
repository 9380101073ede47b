package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// Resize asks the window to take the given client size. The position is left
// alone; it is pushed separately with Move once the layout applies.
func (c *Connection) Resize(win xproto.Window, width, height int) {
	if !c.managing {
		c.unmaximizeWindow(win)
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)})
}

// Move places the window's top-left corner at x, y.
func (c *Connection) Move(win xproto.Window, x, y int) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(x)), uint32(int32(y))})
}

// stateRemove is the _NET_WM_STATE action that clears a state.
const stateRemove = 0

// unmaximizeWindow removes maximized state so a cooperating window manager
// honours the requested size.
func (c *Connection) unmaximizeWindow(win xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return
	}

	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, win, stateRemove, state)
		}
	}
}

// Map makes the window viewable.
func (c *Connection) Map(win xproto.Window) {
	xproto.MapWindow(c.XUtil.Conn(), win)
}

// Unmap hides the window.
func (c *Connection) Unmap(win xproto.Window) {
	xproto.UnmapWindow(c.XUtil.Conn(), win)
}

// FrameExtents returns the window decoration sizes (zeros when unset).
func (c *Connection) FrameExtents(win xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, win)
	if err != nil {
		return 0, 0, 0, 0
	}
	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	return len(types) == 0
}

// Attributes reports whether win is viewable and whether it bypasses window
// management. ok is false when the window is gone.
func (c *Connection) Attributes(win xproto.Window) (viewable, overrideRedirect, ok bool) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return false, false, false
	}
	return attrs.MapState == xproto.MapStateViewable, attrs.OverrideRedirect, true
}

// Geometry returns the window's client rectangle in root coordinates.
func (c *Connection) Geometry(win xproto.Window) (x, y, width, height int, ok bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), true
}

// Title returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) Title(win xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, win); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// TopLevels lists candidate client windows: the root's children when
// managing, otherwise the cooperating manager's _NET_CLIENT_LIST.
func (c *Connection) TopLevels() ([]xproto.Window, error) {
	if !c.managing {
		return ewmh.ClientListGet(c.XUtil)
	}
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

// WatchProperties subscribes to property changes on win so title updates
// are delivered.
func (c *Connection) WatchProperties(win xproto.Window) {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), win, xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskPropertyChange)})
}

// CloseWindow requests a graceful close via WM_DELETE_WINDOW, or kills the
// client when it does not take part in that protocol.
func (c *Connection) CloseWindow(win xproto.Window) error {
	protocols, err := icccm.WmProtocolsGet(c.XUtil, win)
	supportsDelete := false
	if err == nil {
		for _, p := range protocols {
			if p == "WM_DELETE_WINDOW" {
				supportsDelete = true
				break
			}
		}
	}
	if !supportsDelete {
		return xproto.KillClientChecked(c.XUtil.Conn(), uint32(win)).Check()
	}

	deleteAtom, err := c.atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		win,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

func (c *Connection) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
