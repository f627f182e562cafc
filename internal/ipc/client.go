package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/1broseidon/treetile/internal/runtimepath"
)

// ErrDaemonNotRunning is returned when nothing listens on the socket.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// Client talks to a running daemon. Each call opens its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket. Resolution errors
// are reported by the first call.
func NewClient() *Client {
	path, err := runtimepath.SocketPath()
	if err != nil {
		path = ""
	}
	return NewClientForSocket(path)
}

// NewClientForSocket creates a client for socketPath.
func NewClientForSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    2 * DefaultRequestTimeout,
	}
}

// call sends cmd and decodes the response data into out.
func (c *Client) call(cmd CommandType, out any) error {
	if c.socketPath == "" {
		return fmt.Errorf("%w: no control socket path", ErrDaemonNotRunning)
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("%w (no listener on %s)", ErrDaemonNotRunning, c.socketPath)
		}
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if err := json.NewEncoder(conn).Encode(Request{Command: cmd}); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("read %s response: %w", cmd, err)
	}
	if resp.Status != StatusOK {
		return &RemoteError{Command: cmd, Message: resp.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", cmd, err)
	}
	return nil
}

func (c *Client) status(cmd CommandType) (*StatusData, error) {
	var st StatusData
	if err := c.call(cmd, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStatus returns the daemon's settings and cycle counters.
func (c *Client) GetStatus() (*StatusData, error) {
	return c.status(CommandGetStatus)
}

// Relayout makes the daemon run a pass that pushes the layout even when
// no window moved.
func (c *Client) Relayout() (*StatusData, error) {
	return c.status(CommandRelayout)
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() (*StatusData, error) {
	return c.status(CommandReload)
}

// GetWorkspaces returns per-workspace window counts.
func (c *Client) GetWorkspaces() (*WorkspacesData, error) {
	var data WorkspacesData
	if err := c.call(CommandGetWorkspaces, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping reports whether the daemon answers.
func (c *Client) Ping() error {
	return c.call(CommandGetStatus, nil)
}
