package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/treetile/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, statusOutput(st), nil
}

func (s *Server) handleListWorkspaces(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListWorkspacesOutput, error) {
	data, err := s.daemon.GetWorkspaces()
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("list workspaces: %w", err)
	}

	out := ListWorkspacesOutput{Workspaces: make([]WorkspaceInfo, 0, len(data.Workspaces))}
	for _, ws := range data.Workspaces {
		out.Workspaces = append(out.Workspaces, WorkspaceInfo{
			ID:      int(ws.ID),
			Windows: ws.Windows,
			Bucket:  ws.Bucket,
			Active:  ws.Active,
		})
	}
	return nil, out, nil
}

func (s *Server) handleRelayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, RelayoutOutput, error) {
	st, err := s.daemon.Relayout()
	if err != nil {
		return nil, RelayoutOutput{}, fmt.Errorf("relayout: %w", err)
	}

	last := st.Poller.Stats.LastLayout
	return nil, RelayoutOutput{
		Workspace: int(last.Workspace),
		Windows:   last.Windows,
		Applied:   last.Applied,
		Failed:    last.Failed,
		Relayouts: st.Poller.Stats.Relayouts,
	}, nil
}

func statusOutput(st *ipc.StatusData) StatusOutput {
	p := st.Poller
	return StatusOutput{
		PID:               st.PID,
		UptimeSeconds:     st.UptimeSeconds,
		IntervalMillis:    p.Interval.Milliseconds(),
		Threshold:         p.Threshold,
		ReservedMargin:    p.ReservedMargin,
		Ticks:             p.Stats.Ticks,
		Skipped:           p.Stats.Skipped,
		Relayouts:         p.Stats.Relayouts,
		GeometryUpdates:   p.Stats.GeometryUpdates,
		WindowsMoved:      p.Stats.WindowsMoved,
		WorkspacesCreated: p.Stats.WorkspacesCreated,
		CreationFailures:  p.Stats.CreationFailures,
		LastError:         p.Stats.LastError,
	}
}
