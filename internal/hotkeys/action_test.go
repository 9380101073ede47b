package hotkeys

import (
	"testing"

	"github.com/1broseidon/tilewm/internal/ipc"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		action string
		want   ipc.CommandType
	}{
		{"workspace 3", ipc.CommandSetWorkspace},
		{"Workspace 2 HDMI-1", ipc.CommandSetWorkspace},
		{"move 4", ipc.CommandMoveToWorkspace},
		{"mode bsp", ipc.CommandSetTilingMode},
		{"focus left", ipc.CommandFocusDirection},
		{"retile", ipc.CommandRetile},
		{"reload", ipc.CommandReload},
		{"close", ipc.CommandCloseWindow},
		{"fullscreen", ipc.CommandToggleFullscreen},
		{"maximize", ipc.CommandToggleMaximize},
		{"  pin  ", ipc.CommandTogglePin},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			req, err := ParseAction(tt.action)
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if req.Command != tt.want {
				t.Fatalf("command = %s, want %s", req.Command, tt.want)
			}
		})
	}
}

func TestParseAction_Payload(t *testing.T) {
	req, err := ParseAction("workspace 2 HDMI-1")
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	var p ipc.SetWorkspacePayload
	if err := req.Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Number != 2 || p.Output != "HDMI-1" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestParseAction_Invalid(t *testing.T) {
	for _, action := range []string{
		"",
		"workspace",
		"workspace two",
		"workspace 0",
		"move",
		"mode spiral",
		"focus sideways",
		"retile now",
		"launch xterm",
	} {
		if _, err := ParseAction(action); err == nil {
			t.Errorf("ParseAction(%q) succeeded", action)
		}
	}
}
