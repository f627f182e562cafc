// Package ipc is the daemon's control channel: one JSON request and one
// JSON response per connection, each terminated by a newline, over a unix
// socket.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/treetile/internal/daemon"
	"github.com/1broseidon/treetile/internal/workspace"
)

// CommandType names a control command.
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetWorkspaces CommandType = "GET_WORKSPACES"
	CommandRelayout      CommandType = "RELAYOUT"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by GET_STATUS, RELAYOUT and RELOAD.
type StatusData struct {
	DaemonRunning bool          `json:"daemon_running"`
	PID           int           `json:"pid"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Poller        daemon.Status `json:"poller"`
}

// WorkspacesData is returned by GET_WORKSPACES.
type WorkspacesData struct {
	Workspaces []workspace.Info `json:"workspaces"`
}

// RemoteError is an ERROR response surfaced on the client side.
type RemoteError struct {
	Command CommandType
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("daemon error (%s): %s", e.Command, e.Message)
}

func okResponse(data any) *Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return errorResponse("failed to encode %T: %v", data, err)
	}
	return &Response{Status: StatusOK, Data: raw}
}

func errorResponse(format string, args ...any) *Response {
	return &Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}
