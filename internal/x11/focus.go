package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// FocusWindow activates win. When managing, input focus is set directly and
// _NET_ACTIVE_WINDOW is published; otherwise the cooperating window manager
// is asked through a _NET_ACTIVE_WINDOW client message.
func (c *Connection) FocusWindow(win xproto.Window) error {
	if c.managing {
		xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime)
		xproto.ConfigureWindow(c.XUtil.Conn(), win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
		return ewmh.ActiveWindowSet(c.XUtil, win)
	}

	// Built by hand: the xgbutil ewmh request helper panics on this library
	// version (uint vs int type assertion).
	activeAtom, err := c.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   activeAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// ClearFocus drops input focus back to the root.
func (c *Connection) ClearFocus() error {
	if !c.managing {
		return nil
	}
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, xproto.InputFocusPointerRoot, xproto.TimeCurrentTime)
	return ewmh.ActiveWindowSet(c.XUtil, 0)
}
