package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

type fakeSource struct {
	err error
}

func (f *fakeSource) Status() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{Outputs: 2, Windows: 3, FocusedOutput: "DP-1", ActiveMode: "grid"}, nil
}

func (f *fakeSource) Windows() ([]wm.WindowInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []wm.WindowInfo{
		{ID: 1, Output: "DP-1", Workspace: 1},
		{ID: 2, Output: "DP-1", Workspace: 2, Hidden: true},
		{ID: 3, Output: "HDMI-1", Workspace: 1},
	}, nil
}

func (f *fakeSource) Workspaces() ([]wm.WorkspaceInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []wm.WorkspaceInfo{
		{Output: "DP-1", Number: 1, Toplevels: 1},
		{Output: "DP-1", Number: 2, Toplevels: 1},
		{Output: "HDMI-1", Number: 1, Toplevels: 1},
	}, nil
}

func (f *fakeSource) Outputs() ([]wm.OutputInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func ids(windows []wm.WindowInfo) []uint32 {
	out := make([]uint32, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.ID)
	}
	return out
}

func TestListWindowsFilters(t *testing.T) {
	s := NewServer(&fakeSource{}, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ListWindowsInput
		want []uint32
	}{
		{"all", ListWindowsInput{}, []uint32{1, 2, 3}},
		{"by output", ListWindowsInput{Output: "DP-1"}, []uint32{1, 2}},
		{"by workspace", ListWindowsInput{Workspace: 1}, []uint32{1, 3}},
		{"visible only", ListWindowsInput{Visible: true}, []uint32{1, 3}},
		{"output and workspace", ListWindowsInput{Output: "DP-1", Workspace: 2}, []uint32{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleListWindows(ctx, nil, tt.in)
			if err != nil {
				t.Fatalf("list_windows: %v", err)
			}
			got := ids(out.Windows)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	if _, _, err := s.handleListWindows(ctx, nil, ListWindowsInput{Workspace: -1}); err == nil {
		t.Fatalf("expected error for negative workspace")
	}
}

func TestListWorkspacesByOutput(t *testing.T) {
	s := NewServer(&fakeSource{}, nil)
	_, out, err := s.handleListWorkspaces(context.Background(), nil, ListWorkspacesInput{Output: "HDMI-1"})
	if err != nil {
		t.Fatalf("list_workspaces: %v", err)
	}
	if len(out.Workspaces) != 1 || out.Workspaces[0].Output != "HDMI-1" {
		t.Fatalf("workspaces = %+v", out.Workspaces)
	}
}

func TestListOutputsNeverNil(t *testing.T) {
	s := NewServer(&fakeSource{}, nil)
	_, out, err := s.handleListOutputs(context.Background(), nil, ListOutputsInput{})
	if err != nil {
		t.Fatalf("list_outputs: %v", err)
	}
	if out.Outputs == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestGetStatus(t *testing.T) {
	s := NewServer(&fakeSource{}, nil)
	_, out, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	if out.Status.Windows != 3 || out.Status.FocusedOutput != "DP-1" || out.Status.ActiveMode != "grid" {
		t.Fatalf("status = %+v", out)
	}
}

func TestSourceErrorsPropagate(t *testing.T) {
	boom := errors.New("daemon down")
	s := NewServer(&fakeSource{err: boom}, nil)
	ctx := context.Background()

	if _, _, err := s.handleListWindows(ctx, nil, ListWindowsInput{}); !errors.Is(err, boom) {
		t.Errorf("list_windows err = %v", err)
	}
	if _, _, err := s.handleListWorkspaces(ctx, nil, ListWorkspacesInput{}); !errors.Is(err, boom) {
		t.Errorf("list_workspaces err = %v", err)
	}
	if _, _, err := s.handleListOutputs(ctx, nil, ListOutputsInput{}); !errors.Is(err, boom) {
		t.Errorf("list_outputs err = %v", err)
	}
	if _, _, err := s.handleGetStatus(ctx, nil, GetStatusInput{}); !errors.Is(err, boom) {
		t.Errorf("get_status err = %v", err)
	}
}
