package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/tilewm/internal/wm"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"terminal", 0, "terminal"},
		{"terminal", 20, "terminal"},
		{"terminal", 6, "ter..."},
		{"terminal", 2, "te"},
		{"ターミナル画面", 5, "ター..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	printWindows(&buf, []wm.WindowInfo{
		{ID: 0x1a, Title: "editor", Width: 600, Height: 800, Workspace: 1, Output: "DP-1", Focused: true, Pinned: true},
		{ID: 0x2b, Title: "orphan", Workspace: 3, Hidden: true},
	}, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("header = %q", lines[0])
	}
	for _, want := range []string{"0x1a", "DP-1", "600x800+0+0", "*p", "editor"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	if fields := strings.Fields(lines[2]); fields[1] != "-" || fields[4] != "h" {
		t.Errorf("orphan row = %q", lines[2])
	}
}

func TestPrintWorkspacesMarksActive(t *testing.T) {
	var buf bytes.Buffer
	printWorkspaces(&buf, []wm.WorkspaceInfo{
		{Output: "DP-1", Number: 1, Active: 2, Mode: "grid", AutoTile: true},
		{Output: "DP-1", Number: 2, Active: 2, Toplevels: 3, Mode: "bsp"},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if got := strings.Fields(lines[1]); got[2] != "false" || got[4] != "grid" {
		t.Errorf("row 1 = %v", got)
	}
	if got := strings.Fields(lines[2]); got[2] != "true" || got[3] != "3" || got[5] != "false" {
		t.Errorf("row 2 = %v", got)
	}
}
