package palette

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/wm"
)

var modes = []tiling.Mode{tiling.ModeGrid, tiling.ModeMaster, tiling.ModeDwindle, tiling.ModeBSP}

// Commands builds the palette menu for the daemon state. Actions use the
// keybinding action syntax. maxWorkspaces bounds the workspace submenus.
func Commands(status *ipc.StatusData, workspaces []wm.WorkspaceInfo, maxWorkspaces int) []MenuItem {
	var items []MenuItem

	var switchTo, moveTo []MenuItem
	for n := 1; n <= maxWorkspaces; n++ {
		label := fmt.Sprintf("Workspace %d", n)
		if count := toplevels(workspaces, status.FocusedOutput, n); count > 0 {
			label = fmt.Sprintf("Workspace %d (%d)", n, count)
		}
		switchTo = append(switchTo, MenuItem{
			Label:    label,
			Action:   fmt.Sprintf("workspace %d", n),
			IsActive: n == status.ActiveNumber,
		})
		if n != status.ActiveNumber {
			moveTo = append(moveTo, MenuItem{Label: fmt.Sprintf("Workspace %d", n), Action: fmt.Sprintf("move %d", n)})
		}
	}
	items = append(items, MenuItem{Label: "Switch workspace", Icon: "desktop", Submenu: switchTo})

	var layouts []MenuItem
	for _, m := range modes {
		layouts = append(layouts, MenuItem{
			Label:    m.String(),
			Action:   "mode " + m.String(),
			IsActive: m.String() == status.ActiveMode,
		})
	}
	items = append(items,
		MenuItem{Label: "Tiling mode", Icon: "view-grid", Submenu: layouts},
		MenuItem{Label: "Retile", Action: "retile", Icon: "view-refresh"},
	)

	if status.FocusedWindow != 0 {
		items = append(items, MenuItem{Label: "Window", IsHeader: true})
		if len(moveTo) > 0 {
			items = append(items, MenuItem{Label: "Move to workspace", Icon: "go-next", Submenu: moveTo})
		}
		items = append(items,
			MenuItem{Label: "Toggle fullscreen", Action: "fullscreen", Icon: "view-fullscreen"},
			MenuItem{Label: "Toggle maximize", Action: "maximize", Icon: "window-maximize"},
			MenuItem{Label: "Toggle pin", Action: "pin", Icon: "pin", Meta: "sticky"},
			MenuItem{Label: "Close", Action: "close", Icon: "window-close"},
		)
	}

	items = append(items,
		MenuItem{Label: "Daemon", IsHeader: true},
		MenuItem{Label: "Reload config", Action: "reload", Icon: "document-revert"},
	)
	return items
}

func toplevels(workspaces []wm.WorkspaceInfo, output string, n int) int {
	for _, ws := range workspaces {
		if ws.Output == output && ws.Number == n {
			return ws.Toplevels
		}
	}
	return 0
}
