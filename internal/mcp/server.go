// Package mcp exposes the running daemon to MCP clients over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/treetile/internal/ipc"
)

const (
	ServerName    = "treetile"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetWorkspaces() (*ipc.WorkspacesData, error)
	Relayout() (*ipc.StatusData, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for treetile.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates an MCP server that forwards to d.
func NewServer(d Daemon) *Server {
	s := &Server{daemon: d}
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
		Name:        "get_status",
		Description: "Report the tiling daemon's settings and counters: ticks, relayouts, windows moved between workspaces and workspace creation failures.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List every workspace with its number of active windows and whether it is overloaded, free or exactly at the per-workspace limit.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "relayout",
		Description: "Force the daemon to re-tile the active workspace now, even if no window moved.",
	}, s.handleRelayout)
}
