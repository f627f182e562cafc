package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/treetile/internal/daemon"
	"github.com/1broseidon/treetile/internal/runtimepath"
	"github.com/1broseidon/treetile/internal/workspace"
)

// DefaultRequestTimeout bounds how long a single command may take.
const DefaultRequestTimeout = 5 * time.Second

// ErrAlreadyRunning is returned when another daemon answers on the socket.
var ErrAlreadyRunning = errors.New("another daemon is listening on the control socket")

// Controller is the daemon side of the protocol.
type Controller interface {
	Status(ctx context.Context) (daemon.Status, error)
	Relayout(ctx context.Context) (daemon.Status, error)
	Reload(ctx context.Context) (daemon.Status, error)
	Workspaces(ctx context.Context) ([]workspace.Info, error)
}

// ServerConfig holds configuration for the IPC server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath     string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

var _ Controller = (*daemon.Poller)(nil)

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	timeout    time.Duration
	listener   net.Listener
	ctrl       Controller
	logger     *slog.Logger
	startTime  time.Time

	shutdownMu   sync.Mutex
	shuttingDown bool
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(ctrl Controller, cfg ServerConfig) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		socketPath: socketPath,
		timeout:    timeout,
		ctrl:       ctrl,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.socketPath)
	}
	// Remove stale socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			closing := s.shuttingDown
			s.shutdownMu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
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

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * s.timeout))

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	var resp *Response
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		resp = errorResponse("Invalid request: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		resp = s.dispatch(ctx, req.Command)
		cancel()
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, cmd CommandType) *Response {
	s.logger.Debug("IPC command", "command", cmd)

	var (
		st  daemon.Status
		err error
	)
	switch cmd {
	case CommandGetStatus:
		st, err = s.ctrl.Status(ctx)
	case CommandRelayout:
		st, err = s.ctrl.Relayout(ctx)
	case CommandReload:
		st, err = s.ctrl.Reload(ctx)
	case CommandGetWorkspaces:
		infos, err := s.ctrl.Workspaces(ctx)
		if err != nil {
			return errorResponse("Failed to list workspaces: %v", err)
		}
		return okResponse(WorkspacesData{Workspaces: infos})
	default:
		return errorResponse("Unknown command: %s", cmd)
	}
	if err != nil {
		return errorResponse("%v", err)
	}
	return okResponse(StatusData{
		DaemonRunning: true,
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Poller:        st,
	})
}

// Stop closes the listener, waits for in-flight requests and removes the socket.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	var err error
	if s.listener != nil {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = fmt.Errorf("close IPC listener: %w", cerr)
		}
	}
	s.wg.Wait()
	if rerr := os.Remove(s.socketPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
		err = fmt.Errorf("remove IPC socket: %w", rerr)
	}
	return err
}
