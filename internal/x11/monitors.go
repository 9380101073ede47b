package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor is a RandR output with its full and usable areas.
type Monitor struct {
	ID   int
	Name string

	X      int
	Y      int
	Width  int
	Height int

	UsableX      int
	UsableY      int
	UsableWidth  int
	UsableHeight int
}

// GetMonitors retrieves all active monitors using XRandR. Usable areas
// exclude dock struts, or the _NET_WORKAREA when no dock sets struts.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		m := Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		m.UsableX, m.UsableY, m.UsableWidth, m.UsableHeight = m.X, m.Y, m.Width, m.Height
		monitors = append(monitors, m)
	}

	struts := c.dockStruts()
	rootWidth, rootHeight := c.rootSize()
	for i := range monitors {
		mon := &monitors[i]
		if len(struts) > 0 {
			applyDockStruts(mon, struts, rootWidth, rootHeight)
			continue
		}
		c.applyWorkarea(mon)
	}

	return monitors, nil
}

func (c *Connection) rootSize() (int, int) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return 0, 0
	}
	return int(geom.Width), int(geom.Height)
}

// dockStruts collects the strut reservations of every dock window. Docks that
// only set _NET_WM_STRUT are widened to full-length partial struts.
func (c *Connection) dockStruts() []ewmh.WmStrutPartial {
	windows, err := c.TopLevels()
	if err != nil {
		return nil
	}
	rootWidth, rootHeight := c.rootSize()

	var out []ewmh.WmStrutPartial
	for _, win := range windows {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
		if err != nil {
			continue
		}

		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			out = append(out, *sp)
			continue
		}

		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			out = append(out, ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootHeight - 1),
				RightEndY:  uint(rootHeight - 1),
				TopEndX:    uint(rootWidth - 1),
				BottomEndX: uint(rootWidth - 1),
			})
		}
	}
	return out
}

func (c *Connection) applyWorkarea(mon *Monitor) {
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return
	}
	desktopIndex := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		desktopIndex = int(current)
	}
	wa := workArea[desktopIndex]

	x1 := max(mon.X, int(wa.X))
	y1 := max(mon.Y, int(wa.Y))
	x2 := min(mon.X+mon.Width, int(wa.X)+int(wa.Width))
	y2 := min(mon.Y+mon.Height, int(wa.Y)+int(wa.Height))
	if x2 > x1 && y2 > y1 {
		mon.UsableX, mon.UsableY = x1, y1
		mon.UsableWidth, mon.UsableHeight = x2-x1, y2-y1
	}
}

type strutEdges struct {
	left   int
	right  int
	top    int
	bottom int
}

func applyDockStruts(mon *Monitor, struts []ewmh.WmStrutPartial, rootWidth, rootHeight int) {
	var acc strutEdges
	for i := range struts {
		updateStrutsForMonitor(mon, rootWidth, rootHeight, &struts[i], &acc)
	}

	mon.UsableX = mon.X + acc.left
	mon.UsableY = mon.Y + acc.top
	mon.UsableWidth = max(1, mon.Width-(acc.left+acc.right))
	mon.UsableHeight = max(1, mon.Height-(acc.top+acc.bottom))
}

func updateStrutsForMonitor(mon *Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *strutEdges) {
	monX1 := mon.X
	monY1 := mon.Y
	monX2 := mon.X + mon.Width
	monY2 := mon.Y + mon.Height

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top))
		acc.top = max(acc.top, isect.h)
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, int(sp.BottomStartX), rootHeight-int(sp.Bottom), int(sp.BottomEndX)+1, rootHeight)
		acc.bottom = max(acc.bottom, isect.h)
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, 0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1)
		acc.left = max(acc.left, isect.w)
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, rootWidth-int(sp.Right), int(sp.RightStartY), rootWidth, int(sp.RightEndY)+1)
		acc.right = max(acc.right, isect.w)
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}
