package tiling

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/treetile/internal/platform"
)

// DefaultReservedMargin is the strip of display height left for panels.
const DefaultReservedMargin = 5

// EngineConfig holds configuration for the layout engine.
type EngineConfig struct {
	ReservedMargin int
	Logger         *slog.Logger
}

// Engine tiles the windows of the active workspace.
type Engine struct {
	sys            platform.WindowSystem
	reservedMargin int
	logger         *slog.Logger
}

// ApplyResult describes what one layout pass did.
type ApplyResult struct {
	Workspace platform.WorkspaceID
	Windows   int
	// Changed is true when the current arrangement differed from the
	// previous snapshot, or there was none.
	Changed bool
	// Applied counts windows whose geometry was set.
	Applied int
	// Failed counts windows whose geometry could not be set.
	Failed int
}

type tiledWindow struct {
	id      platform.WindowID
	current Rect
}

// NewEngine creates a layout engine over sys.
func NewEngine(sys platform.WindowSystem, cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		sys:            sys,
		reservedMargin: cfg.ReservedMargin,
		logger:         logger,
	}
}

// SetReservedMargin changes the margin used from the next pass on.
func (e *Engine) SetReservedMargin(margin int) {
	e.reservedMargin = margin
}

// Apply runs one layout pass against prev, the snapshot from the last pass.
//
// Two trees are built over the same windows: an observed tree whose leaves
// carry each window's current on-screen geometry, and a target tree laid
// out normally. Target geometry is pushed only when the observed tree differs
// from prev (or prev is nil). The returned snapshot is a copy of it and
// replaces prev. On error the pass was skipped and prev is returned as is.
func (e *Engine) Apply(prev *Snapshot) (*Snapshot, ApplyResult, error) {
	var res ApplyResult

	active, err := e.sys.ActiveWorkspace()
	if err != nil {
		return prev, res, fmt.Errorf("layout skipped: %w", err)
	}
	res.Workspace = active

	width, height, err := e.sys.PrimaryDisplayResolution()
	if err != nil {
		return prev, res, fmt.Errorf("layout skipped: display resolution: %w", err)
	}
	area := UsableArea(width, height, e.reservedMargin)

	windows, err := e.activeWindows(active)
	if err != nil {
		return prev, res, fmt.Errorf("layout skipped: %w", err)
	}
	res.Windows = len(windows)
	if len(windows) == 0 {
		return prev, res, nil
	}

	observed := NewTree(area)
	target := NewTree(area)
	observedLeaves := make([]NodeID, len(windows))
	for i, w := range windows {
		observedLeaves[i] = observed.Insert(w.id)
		target.Insert(w.id)
	}
	// Overwrite after all insertions; each Insert recomputes leaf geometry.
	for i, w := range windows {
		observed.SetRect(observedLeaves[i], w.current)
	}

	next := observed.Snapshot()
	res.Changed = prev == nil || !Equal(next, prev)
	if !res.Changed {
		e.logger.Debug("layout unchanged", "workspace", active, "windows", len(windows))
		return next, res, nil
	}

	e.logger.Info("applying layout",
		"workspace", active,
		"windows", len(windows),
		"area", fmt.Sprintf("%dx%d", area.Width, area.Height))

	for _, id := range target.Leaves() {
		leaf := target.Node(id)
		if err := e.place(leaf.Window, leaf.Rect); err != nil {
			res.Failed++
			e.logger.Warn("failed to tile window", "window", leaf.Window, "error", err)
			continue
		}
		res.Applied++
	}

	return next, res, nil
}

// place clears maximized state and then sets geometry.
func (e *Engine) place(w platform.WindowID, r Rect) error {
	if err := e.sys.Unmaximize(w); err != nil {
		if errors.Is(err, platform.ErrStaleWindow) {
			return err
		}
		e.logger.Debug("unmaximize failed", "window", w, "error", err)
	}

	e.logger.Debug("tiling window", "window", w,
		"x", r.X, "y", r.Y, "width", r.Width, "height", r.Height)
	return e.sys.SetGeometry(w, r.platform())
}

// activeWindows returns the tileable windows on ws in open order along
// with their current geometry. Windows that vanish mid-query are skipped.
func (e *Engine) activeWindows(ws platform.WorkspaceID) ([]tiledWindow, error) {
	ids, err := e.sys.Windows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	windows := make([]tiledWindow, 0, len(ids))
	for _, id := range ids {
		if !platform.IsActiveOn(e.sys, id, ws) {
			continue
		}
		geom, err := e.sys.Geometry(id)
		if err != nil {
			e.logger.Warn("skipping window", "window", id, "error", err)
			continue
		}
		windows = append(windows, tiledWindow{id: id, current: rectFromPlatform(geom)})
	}
	return windows, nil
}
