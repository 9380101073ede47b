package hotkeys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/tilewm/internal/ipc"
)

// ParseAction turns a binding action into a control request. Actions use the
// CLI's words: "workspace 3", "workspace 2 HDMI-1", "move 4", "mode bsp",
// "focus left", "retile", "reload", "close", "fullscreen", "maximize", "pin".
func ParseAction(action string) (ipc.Request, error) {
	fields := strings.Fields(action)
	if len(fields) == 0 {
		return ipc.Request{}, fmt.Errorf("empty action")
	}

	var (
		cmd     ipc.CommandType
		payload any
		argc    = len(fields) - 1
	)
	switch verb := strings.ToLower(fields[0]); verb {
	case "workspace":
		if argc < 1 || argc > 2 {
			return ipc.Request{}, fmt.Errorf("usage: workspace <n> [output]")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return ipc.Request{}, fmt.Errorf("invalid workspace number %q", fields[1])
		}
		p := ipc.SetWorkspacePayload{Number: n}
		if argc == 2 {
			p.Output = fields[2]
		}
		cmd, payload = ipc.CommandSetWorkspace, p
	case "move":
		if argc != 1 {
			return ipc.Request{}, fmt.Errorf("usage: move <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return ipc.Request{}, fmt.Errorf("invalid workspace number %q", fields[1])
		}
		cmd, payload = ipc.CommandMoveToWorkspace, ipc.MoveToWorkspacePayload{Number: n}
	case "mode":
		if argc != 1 {
			return ipc.Request{}, fmt.Errorf("usage: mode <grid|master|dwindle|bsp>")
		}
		cmd, payload = ipc.CommandSetTilingMode, ipc.SetTilingModePayload{Mode: fields[1]}
	case "focus":
		if argc != 1 {
			return ipc.Request{}, fmt.Errorf("usage: focus <left|right|up|down>")
		}
		cmd, payload = ipc.CommandFocusDirection, ipc.FocusDirectionPayload{Direction: fields[1]}
	default:
		simple, ok := simpleActions[verb]
		if !ok {
			return ipc.Request{}, fmt.Errorf("unknown action %q", fields[0])
		}
		if argc != 0 {
			return ipc.Request{}, fmt.Errorf("%s takes no arguments", verb)
		}
		cmd = simple
	}

	req, err := ipc.NewRequest(cmd, payload)
	if err != nil {
		return ipc.Request{}, err
	}
	if err := req.Validate(); err != nil {
		return ipc.Request{}, err
	}
	return *req, nil
}

var simpleActions = map[string]ipc.CommandType{
	"retile":     ipc.CommandRetile,
	"reload":     ipc.CommandReload,
	"close":      ipc.CommandCloseWindow,
	"fullscreen": ipc.CommandToggleFullscreen,
	"maximize":   ipc.CommandToggleMaximize,
	"pin":        ipc.CommandTogglePin,
}
