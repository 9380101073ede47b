package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/wm"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or the default runtime socket
// when socketPath is empty.
func NewClient(socketPath string) *Client {
	path, err := runtimepath.SocketPath(socketPath)
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		path = ""
	}

	return &Client{
		socketPath: path,
		timeout:    DispatchTimeout + time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) query(cmd CommandType, out any) error {
	resp, err := c.sendRequest(&Request{Command: cmd})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

func (c *Client) command(cmd CommandType, payload any) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	_, err = c.sendRequest(req)
	return err
}

// Status retrieves daemon status
func (c *Client) Status() (*StatusData, error) {
	var status StatusData
	if err := c.query(CommandGetStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Windows lists managed windows.
func (c *Client) Windows() ([]wm.WindowInfo, error) {
	var data WindowsData
	if err := c.query(CommandGetWindows, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

// Workspaces lists workspaces on every output.
func (c *Client) Workspaces() ([]wm.WorkspaceInfo, error) {
	var data WorkspacesData
	if err := c.query(CommandGetWorkspaces, &data); err != nil {
		return nil, err
	}
	return data.Workspaces, nil
}

// Outputs lists outputs.
func (c *Client) Outputs() ([]wm.OutputInfo, error) {
	var data OutputsData
	if err := c.query(CommandGetOutputs, &data); err != nil {
		return nil, err
	}
	return data.Outputs, nil
}

// SetWorkspace switches output (the focused output when empty) to workspace n.
func (c *Client) SetWorkspace(output string, n int) error {
	return c.command(CommandSetWorkspace, SetWorkspacePayload{Output: output, Number: n})
}

// SetTilingMode changes the focused workspace's tiling mode.
func (c *Client) SetTilingMode(mode string) error {
	return c.command(CommandSetTilingMode, SetTilingModePayload{Mode: mode})
}

// FocusDirection focuses the nearest window in dir.
func (c *Client) FocusDirection(dir string) error {
	return c.command(CommandFocusDirection, FocusDirectionPayload{Direction: dir})
}

// MoveToWorkspace moves the focused window to workspace n.
func (c *Client) MoveToWorkspace(n int) error {
	return c.command(CommandMoveToWorkspace, MoveToWorkspacePayload{Number: n})
}

// Retile re-runs the layout on every visible workspace.
func (c *Client) Retile() error { return c.command(CommandRetile, nil) }

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error { return c.command(CommandReload, nil) }

// CloseWindow asks the focused window to close.
func (c *Client) CloseWindow() error { return c.command(CommandCloseWindow, nil) }

func (c *Client) ToggleFullscreen() error { return c.command(CommandToggleFullscreen, nil) }
func (c *Client) ToggleMaximize() error   { return c.command(CommandToggleMaximize, nil) }
func (c *Client) TogglePin() error        { return c.command(CommandTogglePin, nil) }

// Send issues an already built mutation request.
func (c *Client) Send(req Request) error {
	if req.Command.IsQuery() {
		return fmt.Errorf("%s is a query", req.Command)
	}
	_, err := c.sendRequest(&req)
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.Status()
	return err
}
