package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/wm"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	if args.Workspace < 0 {
		return nil, ListWindowsOutput{}, fmt.Errorf("workspace must be >= 1")
	}
	windows, err := s.source.Windows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}

	out := make([]wm.WindowInfo, 0, len(windows))
	for _, w := range windows {
		if args.Output != "" && w.Output != args.Output {
			continue
		}
		if args.Workspace != 0 && w.Workspace != args.Workspace {
			continue
		}
		if args.Visible && w.Hidden {
			continue
		}
		out = append(out, w)
	}
	s.logger.Debug("mcp list_windows", "total", len(windows), "returned", len(out))

	return nil, ListWindowsOutput{Windows: out}, nil
}

func (s *Server) handleListWorkspaces(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWorkspacesInput) (*mcpsdk.CallToolResult, ListWorkspacesOutput, error) {
	workspaces, err := s.source.Workspaces()
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("list workspaces: %w", err)
	}

	out := make([]wm.WorkspaceInfo, 0, len(workspaces))
	for _, ws := range workspaces {
		if args.Output != "" && ws.Output != args.Output {
			continue
		}
		out = append(out, ws)
	}
	return nil, ListWorkspacesOutput{Workspaces: out}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	outputs, err := s.source.Outputs()
	if err != nil {
		return nil, ListOutputsOutput{}, fmt.Errorf("list outputs: %w", err)
	}
	if outputs == nil {
		outputs = []wm.OutputInfo{}
	}
	return nil, ListOutputsOutput{Outputs: outputs}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.source.Status()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, GetStatusOutput{Status: *status}, nil
}
