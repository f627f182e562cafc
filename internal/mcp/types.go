package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	PID               int    `json:"pid"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	IntervalMillis    int64  `json:"interval_ms"`
	Threshold         int    `json:"threshold"`
	ReservedMargin    int    `json:"reserved_margin"`
	Ticks             uint64 `json:"ticks"`
	Skipped           uint64 `json:"skipped"`
	Relayouts         uint64 `json:"relayouts"`
	GeometryUpdates   uint64 `json:"geometry_updates"`
	WindowsMoved      uint64 `json:"windows_moved"`
	WorkspacesCreated uint64 `json:"workspaces_created"`
	CreationFailures  uint64 `json:"creation_failures"`
	LastError         string `json:"last_error,omitempty"`
}

// WorkspaceInfo describes one workspace in list_workspaces output.
type WorkspaceInfo struct {
	ID      int    `json:"id"`
	Windows int    `json:"windows"`
	Bucket  string `json:"bucket" jsonschema:"overloaded, free or exact"`
	Active  bool   `json:"active"`
}

// ListWorkspacesOutput is the output for the list_workspaces tool.
type ListWorkspacesOutput struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
}

// RelayoutOutput is the output for the relayout tool.
type RelayoutOutput struct {
	Workspace int    `json:"workspace"`
	Windows   int    `json:"windows"`
	Applied   int    `json:"applied"`
	Failed    int    `json:"failed"`
	Relayouts uint64 `json:"relayouts"`
}
