package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/wm"
)

// DispatchTimeout bounds how long a mutation waits for the event loop.
const DispatchTimeout = 5 * time.Second

// Controller is the daemon side of the socket. Snapshot must be safe to call
// from any goroutine; Dispatch posts a validated mutation to the event loop
// and waits for it to run.
type Controller interface {
	Snapshot() *wm.Snapshot
	Dispatch(ctx context.Context, req Request) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	ctrl       Controller
	logger     *slog.Logger
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server on socketPath.
func NewServer(socketPath string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(DispatchTimeout + time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	if err := req.Validate(); err != nil {
		return NewErrorResponse(err.Error())
	}

	if req.Command.IsQuery() {
		return s.handleQuery(req.Command)
	}

	s.logger.Debug("IPC command", "command", req.Command)

	ctx, cancel := context.WithTimeout(context.Background(), DispatchTimeout)
	defer cancel()
	if err := s.ctrl.Dispatch(ctx, *req); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleQuery(cmd CommandType) *Response {
	snap := s.ctrl.Snapshot()
	if snap == nil {
		return NewErrorResponse("daemon is not ready")
	}

	var data any
	switch cmd {
	case CommandGetStatus:
		data = NewStatusData(snap, time.Since(s.startTime))
	case CommandGetWindows:
		data = WindowsData{Windows: snap.Windows}
	case CommandGetWorkspaces:
		data = WorkspacesData{Workspaces: snap.Workspaces}
	case CommandGetOutputs:
		data = OutputsData{Outputs: snap.Outputs}
	}

	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
