package tiling

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/treetile/internal/platform"
	"github.com/1broseidon/treetile/internal/platform/platformtest"
)

func newEngine(sys platform.WindowSystem) *Engine {
	return NewEngine(sys, EngineConfig{ReservedMargin: DefaultReservedMargin})
}

func TestApply_FirstPassTilesActiveWorkspace(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	sys.AddWindow(1, 0)
	sys.AddWindow(2, 0)
	sys.AddWindow(3, 0)

	snap, res, err := newEngine(sys).Apply(nil)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.True(t, res.Changed)
	require.Equal(t, 3, res.Windows)
	require.Equal(t, 3, res.Applied)

	want := []platformtest.GeometryCall{
		{Window: 1, Rect: platform.Rect{X: 0, Y: 0, Width: 955, Height: 1075}},
		{Window: 2, Rect: platform.Rect{X: 960, Y: 0, Width: 960, Height: 537}},
		{Window: 3, Rect: platform.Rect{X: 960, Y: 537, Width: 960, Height: 538}},
	}
	if diff := cmp.Diff(want, sys.GeometryCalls); diff != "" {
		t.Fatalf("geometry calls mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []platform.WindowID{1, 2, 3}, sys.UnmaximizeCalls)
}

func TestApply_UnchangedArrangementIssuesNoCalls(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0).Bounds = platform.Rect{X: 0, Y: 0, Width: 955, Height: 1075}
	sys.AddWindow(2, 0).Bounds = platform.Rect{X: 960, Y: 0, Width: 960, Height: 1075}
	engine := newEngine(sys)

	snap, res, err := engine.Apply(nil)
	require.NoError(t, err)
	require.True(t, res.Changed)

	sys.ResetCalls()
	next, res, err := engine.Apply(snap)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Zero(t, res.Applied)
	require.Empty(t, sys.GeometryCalls)
	require.Empty(t, sys.UnmaximizeCalls)
	require.True(t, Equal(snap, next))
}

func TestApply_SettlesAfterWindowsMove(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0)
	sys.AddWindow(2, 0)
	engine := newEngine(sys)

	snap, _, err := engine.Apply(nil)
	require.NoError(t, err)

	// Windows now sit where the first pass put them, which differs from the
	// arrangement recorded before it.
	snap, res, err := engine.Apply(snap)
	require.NoError(t, err)
	require.True(t, res.Changed)

	sys.ResetCalls()
	_, res, err = engine.Apply(snap)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Empty(t, sys.GeometryCalls)
}

func TestApply_UserMoveTriggersRelayout(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0).Bounds = platform.Rect{X: 0, Y: 0, Width: 955, Height: 1075}
	sys.AddWindow(2, 0).Bounds = platform.Rect{X: 960, Y: 0, Width: 960, Height: 1075}
	engine := newEngine(sys)

	snap, _, err := engine.Apply(nil)
	require.NoError(t, err)

	sys.Window(2).Bounds = platform.Rect{X: 100, Y: 100, Width: 400, Height: 300}
	sys.ResetCalls()

	_, res, err := engine.Apply(snap)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Len(t, sys.GeometryCalls, 2)
	require.Equal(t, platform.Rect{X: 960, Y: 0, Width: 960, Height: 1075}, sys.Window(2).Bounds)
}

func TestApply_NewWindowTriggersRelayout(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0).Bounds = platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1075}
	engine := newEngine(sys)

	snap, _, err := engine.Apply(nil)
	require.NoError(t, err)

	sys.AddWindow(2, 0)
	sys.ResetCalls()

	_, res, err := engine.Apply(snap)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, 2, res.Applied)
}

func TestApply_FiltersWindows(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	sys.AddWindow(1, 0)
	sys.AddWindow(2, 0).Minimized = true
	sys.AddWindow(3, 0).Kind = platform.KindOther
	sys.AddWindow(4, 1)
	sys.AddWindow(5, 0)
	sys.AddWindow(6, 0)
	sys.MarkStale(6)

	_, res, err := newEngine(sys).Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Windows)

	var tiled []platform.WindowID
	for _, call := range sys.GeometryCalls {
		tiled = append(tiled, call.Window)
	}
	require.Equal(t, []platform.WindowID{1, 5}, tiled)
}

func TestApply_TilesOnlyTheActiveWorkspace(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	sys.AddWindow(1, 0)
	sys.AddWindow(2, 1)
	sys.SetActive(1)

	_, res, err := newEngine(sys).Apply(nil)
	require.NoError(t, err)
	require.Equal(t, platform.WorkspaceID(1), res.Workspace)
	require.Equal(t, []platformtest.GeometryCall{
		{Window: 2, Rect: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1075}},
	}, sys.GeometryCalls)
}

func TestApply_NoActiveWorkspaceKeepsSnapshot(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0)
	sys.ClearActive()

	prev := buildTree(fullHD, 1).Snapshot()
	next, _, err := newEngine(sys).Apply(prev)
	require.Error(t, err)
	require.True(t, errors.Is(err, platform.ErrNoActiveWorkspace))
	require.Same(t, prev, next)
	require.Empty(t, sys.GeometryCalls)
}

func TestApply_NoWindowsKeepsSnapshot(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	sys.AddWindow(1, 1)

	prev := buildTree(fullHD, 2).Snapshot()
	next, res, err := newEngine(sys).Apply(prev)
	require.NoError(t, err)
	require.Zero(t, res.Windows)
	require.Same(t, prev, next)
}

func TestApply_ListFailureIsReported(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.WindowsErr = errors.New("boom")

	_, _, err := newEngine(sys).Apply(nil)
	require.ErrorContains(t, err, "boom")
}

func TestApply_UnmaximizesBeforeSettingGeometry(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0).Maximized = true
	sys.AddWindow(2, 0)

	_, res, err := newEngine(sys).Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Applied)
	require.Equal(t, []platform.WindowID{1, 2}, sys.UnmaximizeCalls)
	require.Len(t, sys.GeometryCalls, 2)
	for _, call := range sys.GeometryCalls {
		require.False(t, call.Maximized, "window %d still maximized when placed", call.Window)
	}
	require.False(t, sys.Window(1).Maximized)
}

func TestApply_WindowClosingAfterGeometryReadCountsAsFailed(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0)
	sys.AddWindow(2, 0)
	sys.AddWindow(3, 0)
	sys.AfterGeometry = func(id platform.WindowID) {
		if id == 2 {
			sys.MarkStale(2)
		}
	}

	_, res, err := newEngine(sys).Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 3, res.Windows)
	require.Equal(t, 2, res.Applied)
	require.Equal(t, 1, res.Failed)

	var tiled []platform.WindowID
	for _, call := range sys.GeometryCalls {
		tiled = append(tiled, call.Window)
	}
	require.Equal(t, []platform.WindowID{1, 3}, tiled)
}

func TestApply_IgnoredGeometryIsNotRetried(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	sys.AddWindow(1, 0).Bounds = platform.Rect{X: 10, Y: 10, Width: 300, Height: 200}
	sys.AddWindow(2, 0).Bounds = platform.Rect{X: 400, Y: 10, Width: 300, Height: 200}
	sys.IgnoreGeometry = true
	engine := newEngine(sys)

	snap, res, err := engine.Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Applied)
	require.Equal(t, platform.Rect{X: 10, Y: 10, Width: 300, Height: 200}, sys.Window(1).Bounds)

	// The arrangement on screen matches the last one seen, so nothing is pushed.
	sys.ResetCalls()
	_, res, err = engine.Apply(snap)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Empty(t, sys.GeometryCalls)
}
