package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/wm"
)

var (
	errNoOutput  = errors.New("no output available")
	errNoWindow  = errors.New("no focused window")
	errNoReload  = errors.New("daemon was started without a config file")
	errUnchanged = errors.New("nothing to change")
)

// Dispatch runs a validated mutation on the event loop and waits for it.
// RELOAD reads the config file before entering the loop so a slow disk never
// stalls layout work.
func (d *Daemon) Dispatch(ctx context.Context, req ipc.Request) error {
	if req.Command == ipc.CommandReload {
		return d.reload(ctx)
	}
	return d.loop.Do(ctx, func() error {
		err := d.apply(req)
		d.publish()
		return err
	})
}

func (d *Daemon) reload(ctx context.Context) error {
	if d.opts.ConfigPath == "" {
		return errNoReload
	}
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	return d.loop.Do(ctx, func() error {
		d.applyConfig(res.Config)
		return nil
	})
}

// apply must run on the loop goroutine.
func (d *Daemon) apply(req ipc.Request) error {
	switch req.Command {
	case ipc.CommandSetWorkspace:
		var p ipc.SetWorkspacePayload
		if err := req.Decode(&p); err != nil {
			return err
		}
		return d.setWorkspace(p.Output, p.Number)

	case ipc.CommandSetTilingMode:
		var p ipc.SetTilingModePayload
		if err := req.Decode(&p); err != nil {
			return err
		}
		mode, err := tiling.ParseMode(p.Mode)
		if err != nil {
			return err
		}
		ws := d.srv.ActiveWorkspace()
		if ws == nil {
			return errNoOutput
		}
		ws.SetTilingMode(mode)
		return nil

	case ipc.CommandFocusDirection:
		var p ipc.FocusDirectionPayload
		if err := req.Decode(&p); err != nil {
			return err
		}
		dir, err := wm.ParseDirection(p.Direction)
		if err != nil {
			return err
		}
		ws := d.srv.ActiveWorkspace()
		if ws == nil {
			return errNoOutput
		}
		if w := ws.InDirection(dir); w != nil {
			ws.Focus(w)
		}
		return nil

	case ipc.CommandMoveToWorkspace:
		var p ipc.MoveToWorkspacePayload
		if err := req.Decode(&p); err != nil {
			return err
		}
		if d.srv.FocusedWindow() == nil {
			return errNoWindow
		}
		if !d.srv.MoveActiveTo(p.Number) {
			return fmt.Errorf("cannot move window to workspace %d", p.Number)
		}
		return nil

	case ipc.CommandRetile:
		d.srv.Retile()
		return nil

	case ipc.CommandCloseWindow:
		w := d.srv.FocusedWindow()
		if w == nil || w.Workspace() == nil {
			return errNoWindow
		}
		w.Workspace().Close(w)
		return nil

	case ipc.CommandToggleFullscreen:
		return d.toggle(func(ws *wm.Workspace, w *wm.Window) bool {
			return ws.SetFullscreen(w, !w.Fullscreen())
		})

	case ipc.CommandToggleMaximize:
		return d.toggle(func(ws *wm.Workspace, w *wm.Window) bool {
			return ws.SetMaximized(w, !w.Maximized())
		})

	case ipc.CommandTogglePin:
		return d.toggle(func(ws *wm.Workspace, w *wm.Window) bool {
			return ws.SetPinned(w, !w.Pinned())
		})
	}
	return fmt.Errorf("unsupported command: %s", req.Command)
}

func (d *Daemon) setWorkspace(output string, n int) error {
	mgr := d.srv.Outputs()
	o := mgr.Focused()
	if output != "" {
		o = mgr.Output(output)
		if o == nil {
			return fmt.Errorf("unknown output %q", output)
		}
	}
	if o == nil {
		return errNoOutput
	}
	if n > d.srv.Defaults().MaxWorkspaces {
		return fmt.Errorf("workspace %d exceeds the maximum of %d", n, d.srv.Defaults().MaxWorkspaces)
	}
	o.SetWorkspace(n)
	mgr.Focus(o)
	return nil
}

func (d *Daemon) toggle(fn func(*wm.Workspace, *wm.Window) bool) error {
	w := d.srv.FocusedWindow()
	if w == nil || w.Workspace() == nil {
		return errNoWindow
	}
	if !fn(w.Workspace(), w) {
		return errUnchanged
	}
	return nil
}
