// Package mcp exposes the window manager's query surface as read-only MCP
// tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Source answers the queries behind the tools. ipc.Client implements it.
type Source interface {
	Status() (*ipc.StatusData, error)
	Windows() ([]wm.WindowInfo, error)
	Workspaces() ([]wm.WorkspaceInfo, error)
	Outputs() ([]wm.OutputInfo, error)
}

var _ Source = (*ipc.Client)(nil)

// Server is the MCP server for tilewm queries.
type Server struct {
	mcpServer *mcpsdk.Server
	source    Source
	logger    *slog.Logger
}

// NewServer creates a new MCP server reading from source.
func NewServer(source Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source: source,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List managed windows with geometry, workspace, output and state flags (focused, hidden, maximized, fullscreen, pinned). Optionally filter by output, workspace number or visibility.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List workspaces per output with their window count, tiling mode and the output's active workspace number.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List connected outputs with their layout and usable areas, active workspace and focus.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Summarize the window manager: counts, focused output and window, active workspace mode and transaction state.",
	}, s.handleGetStatus)
}
