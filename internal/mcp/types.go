package mcp

import (
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Output    string `json:"output,omitempty" jsonschema:"Only windows on this output (e.g. DP-1)"`
	Workspace int    `json:"workspace,omitempty" jsonschema:"Only windows on this workspace number"`
	Visible   bool   `json:"visible,omitempty" jsonschema:"When true, skip hidden windows"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []wm.WindowInfo `json:"windows"`
}

// ListWorkspacesInput is the input for the list_workspaces tool.
type ListWorkspacesInput struct {
	Output string `json:"output,omitempty" jsonschema:"Only workspaces of this output"`
}

// ListWorkspacesOutput is the output for the list_workspaces tool.
type ListWorkspacesOutput struct {
	Workspaces []wm.WorkspaceInfo `json:"workspaces"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []wm.OutputInfo `json:"outputs"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Status ipc.StatusData `json:"status"`
}
