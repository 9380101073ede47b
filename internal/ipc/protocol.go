package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetWindows    CommandType = "GET_WINDOWS"
	CommandGetWorkspaces CommandType = "GET_WORKSPACES"
	CommandGetOutputs    CommandType = "GET_OUTPUTS"

	CommandSetWorkspace     CommandType = "SET_WORKSPACE"
	CommandSetTilingMode    CommandType = "SET_TILING_MODE"
	CommandFocusDirection   CommandType = "FOCUS_DIRECTION"
	CommandMoveToWorkspace  CommandType = "MOVE_TO_WORKSPACE"
	CommandRetile           CommandType = "RETILE"
	CommandReload           CommandType = "RELOAD"
	CommandCloseWindow      CommandType = "CLOSE_WINDOW"
	CommandToggleFullscreen CommandType = "TOGGLE_FULLSCREEN"
	CommandToggleMaximize   CommandType = "TOGGLE_MAXIMIZE"
	CommandTogglePin        CommandType = "TOGGLE_PIN"
)

// IsQuery reports whether the command only reads the published snapshot.
func (c CommandType) IsQuery() bool {
	switch c {
	case CommandGetStatus, CommandGetWindows, CommandGetWorkspaces, CommandGetOutputs:
		return true
	}
	return false
}

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Outputs       int    `json:"outputs"`
	Workspaces    int    `json:"workspaces"`
	Windows       int    `json:"windows"`
	FocusedOutput string `json:"focused_output,omitempty"`
	FocusedWindow uint32 `json:"focused_window,omitempty"`
	ActiveNumber  int    `json:"active_workspace,omitempty"`
	ActiveMode    string `json:"active_mode,omitempty"`
	Transactions  uint64 `json:"transactions"`
	Pending       bool   `json:"pending"`
}

// WindowsData represents the data returned by GET_WINDOWS
type WindowsData struct {
	Windows []wm.WindowInfo `json:"windows"`
}

// WorkspacesData represents the data returned by GET_WORKSPACES
type WorkspacesData struct {
	Workspaces []wm.WorkspaceInfo `json:"workspaces"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []wm.OutputInfo `json:"outputs"`
}

// SetWorkspacePayload switches Output (focused output when empty) to Number.
type SetWorkspacePayload struct {
	Output string `json:"output,omitempty"`
	Number int    `json:"number"`
}

// SetTilingModePayload changes the focused workspace's tiling mode.
type SetTilingModePayload struct {
	Mode string `json:"mode"`
}

// FocusDirectionPayload focuses the nearest window in Direction.
type FocusDirectionPayload struct {
	Direction string `json:"direction"`
}

// MoveToWorkspacePayload moves the focused window to Number on its output.
type MoveToWorkspacePayload struct {
	Number int `json:"number"`
}

// NewRequest builds a request, marshaling payload when it is not nil.
func NewRequest(cmd CommandType, payload any) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return req, nil
}

// Decode unmarshals the payload into v.
func (r *Request) Decode(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%s requires a payload", r.Command)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", r.Command, err)
	}
	return nil
}

// Validate checks the command is known and its payload is well formed.
func (r *Request) Validate() error {
	switch r.Command {
	case CommandGetStatus, CommandGetWindows, CommandGetWorkspaces, CommandGetOutputs,
		CommandRetile, CommandReload, CommandCloseWindow,
		CommandToggleFullscreen, CommandToggleMaximize, CommandTogglePin:
		return nil
	case CommandSetWorkspace:
		var p SetWorkspacePayload
		if err := r.Decode(&p); err != nil {
			return err
		}
		if p.Number < 1 {
			return fmt.Errorf("workspace number must be >= 1")
		}
		return nil
	case CommandMoveToWorkspace:
		var p MoveToWorkspacePayload
		if err := r.Decode(&p); err != nil {
			return err
		}
		if p.Number < 1 {
			return fmt.Errorf("workspace number must be >= 1")
		}
		return nil
	case CommandSetTilingMode:
		var p SetTilingModePayload
		if err := r.Decode(&p); err != nil {
			return err
		}
		if p.Mode == "" {
			return fmt.Errorf("mode is required")
		}
		_, err := tiling.ParseMode(p.Mode)
		return err
	case CommandFocusDirection:
		var p FocusDirectionPayload
		if err := r.Decode(&p); err != nil {
			return err
		}
		_, err := wm.ParseDirection(p.Direction)
		return err
	default:
		return fmt.Errorf("unknown command: %s", r.Command)
	}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// NewStatusData summarizes snap.
func NewStatusData(snap *wm.Snapshot, uptime time.Duration) StatusData {
	status := StatusData{
		UptimeSeconds: int64(uptime.Seconds()),
		Outputs:       len(snap.Outputs),
		Workspaces:    len(snap.Workspaces),
		Windows:       len(snap.Windows),
		FocusedOutput: snap.FocusedOutput,
		FocusedWindow: snap.FocusedWindow,
		Transactions:  snap.Transactions,
		Pending:       snap.Pending,
	}
	for _, o := range snap.Outputs {
		if o.Name != snap.FocusedOutput {
			continue
		}
		status.ActiveNumber = o.ActiveWorkspace
		for _, ws := range snap.Workspaces {
			if ws.Output == o.Name && ws.Number == o.ActiveWorkspace {
				status.ActiveMode = ws.Mode
			}
		}
	}
	return status
}
