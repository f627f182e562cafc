package daemon

import (
	"time"

	"github.com/1broseidon/treetile/internal/platform"
	"github.com/1broseidon/treetile/internal/workspace"
)

// CycleStats accumulates what the poller has done since it started.
type CycleStats struct {
	Ticks             uint64         `json:"ticks"`
	Skipped           uint64         `json:"skipped"`
	LastTick          time.Time      `json:"last_tick"`
	LastTickDuration  time.Duration  `json:"last_tick_duration_ns"`
	Relayouts         uint64         `json:"relayouts"`
	GeometryUpdates   uint64         `json:"geometry_updates"`
	WindowsMoved      uint64         `json:"windows_moved"`
	WorkspacesCreated uint64         `json:"workspaces_created"`
	CreationFailures  uint64         `json:"creation_failures"`
	BalanceAborts     uint64         `json:"balance_aborts"`
	LastLayout        LayoutSummary  `json:"last_layout"`
	LastBalance       BalanceSummary `json:"last_balance"`
	LastError         string         `json:"last_error,omitempty"`
}

// LayoutSummary is the outcome of the most recent layout pass.
type LayoutSummary struct {
	Workspace platform.WorkspaceID `json:"workspace"`
	Windows   int                  `json:"windows"`
	Changed   bool                 `json:"changed"`
	Applied   int                  `json:"applied"`
	Failed    int                  `json:"failed"`
}

// BalanceSummary is the outcome of the most recent balancing pass.
type BalanceSummary struct {
	Overloaded []platform.WorkspaceID `json:"overloaded,omitempty"`
	Created    []platform.WorkspaceID `json:"created,omitempty"`
	Aborted    []platform.WorkspaceID `json:"aborted,omitempty"`
	Moves      []workspace.Move       `json:"moves,omitempty"`
}

func summarize(r workspace.Report) BalanceSummary {
	return BalanceSummary{
		Overloaded: r.Overloaded,
		Created:    r.Created,
		Aborted:    r.Aborted,
		Moves:      r.Moves,
	}
}

// Status is a point-in-time view of the poller.
type Status struct {
	Interval       time.Duration `json:"interval_ns"`
	Threshold      int           `json:"threshold"`
	ReservedMargin int           `json:"reserved_margin"`
	Stats          CycleStats    `json:"stats"`
}

func (p *Poller) status() Status {
	stats := p.stats
	stats.LastBalance.Overloaded = append([]platform.WorkspaceID(nil), p.stats.LastBalance.Overloaded...)
	stats.LastBalance.Created = append([]platform.WorkspaceID(nil), p.stats.LastBalance.Created...)
	stats.LastBalance.Aborted = append([]platform.WorkspaceID(nil), p.stats.LastBalance.Aborted...)
	stats.LastBalance.Moves = append([]workspace.Move(nil), p.stats.LastBalance.Moves...)
	return Status{
		Interval:       p.settings.Interval,
		Threshold:      p.settings.Threshold,
		ReservedMargin: p.settings.ReservedMargin,
		Stats:          stats,
	}
}
